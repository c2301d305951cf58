// Package validate holds the input checks run before any record is
// mutated. Every check returns a *Error carrying a reason Code.
package validate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
	"github.com/pkg/errors"
)

type Code string

const (
	CodeRequired          Code = "required"
	CodeNotNumeric        Code = "not_numeric"
	CodeNotPositive       Code = "not_positive"
	CodeInvalidPIN        Code = "invalid_pin"
	CodeInsufficientFunds Code = "insufficient_funds"
	CodeDuplicate         Code = "duplicate"
	CodeInvalidFormat     Code = "invalid_format"
	CodeInvalidChoice     Code = "invalid_choice"
)

type Error struct {
	Code    Code
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code Code, field, format string, args ...interface{}) *Error {
	return &Error{Code: code, Field: field, Message: fmt.Sprintf(format, args...)}
}

// HasCode reports whether err carries a validation Error with code.
func HasCode(err error, code Code) bool {
	var vErr *Error
	if errors.As(err, &vErr) {
		return vErr.Code == code
	}
	return false
}

var (
	v    *validator.Validate
	once sync.Once
)

func engine() *validator.Validate {
	once.Do(func() {
		v = validator.New()
	})
	return v
}

func Required(field, s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", newError(CodeRequired, field, "%s cannot be empty.", field)
	}
	return s, nil
}

// Number parses s as a float.
func Number(field, s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, newError(CodeNotNumeric, field, "%s is not numeric.", field)
	}
	return n, nil
}

// Amount parses a monetary amount rounded to cents. Zero and negative
// amounts are rejected.
func Amount(field, s string) (float64, error) {
	n, err := Number(field, s)
	if err != nil {
		return 0, err
	}

	n = RoundCents(n)
	if n <= 0 {
		return 0, newError(CodeNotPositive, field, "%s cannot be zero or negative.", field)
	}

	return n, nil
}

func RoundCents(n float64) float64 {
	return math.Round(n*100) / 100
}

// PIN accepts exactly four digits without a leading zero.
func PIN(s string) (int, error) {
	pin, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || pin < 1000 || pin > 9999 {
		return 0, newError(CodeInvalidPIN, "pin", "Pin is invalid, it must be a 4 digit number.")
	}
	return pin, nil
}

// Withdrawal checks amount against the balance plus any overdraft.
func Withdrawal(amount, balance, overdraft float64) error {
	if amount > balance+overdraft {
		return newError(CodeInsufficientFunds, "amount", "Amount is greater than balance.")
	}
	return nil
}

// Unique rejects value when taken reports it as already used. Callers
// are expected to compare case-insensitively.
func Unique(field, value string, taken func(v string) bool) error {
	if taken(value) {
		return newError(CodeDuplicate, field, "%s %q already exists.", field, value)
	}
	return nil
}

// Phone parses s for region and checks it is a dialable number.
func Phone(s, region string) (string, error) {
	num, err := phonenumbers.Parse(strings.TrimSpace(s), region)
	if err != nil {
		return "", newError(CodeInvalidFormat, "phone", "Invalid phone number format.")
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", newError(CodeInvalidFormat, "phone", "Invalid phone number.")
	}

	return strings.TrimSpace(s), nil
}

func Email(s string) (string, error) {
	s = strings.TrimSpace(s)
	if err := engine().Var(s, "required,email"); err != nil {
		return "", newError(CodeInvalidFormat, "email", "Email is invalid.")
	}
	return s, nil
}

// Choice lower-cases s and checks it is one of options.
func Choice(field, s string, options ...string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, o := range options {
		if s == o {
			return s, nil
		}
	}

	return "", newError(CodeInvalidChoice, field, "%s must be one of %s.", field, strings.Join(options, ", "))
}

// Struct runs the `validate` struct tags of a record.
func Struct(rec interface{}) error {
	err := engine().Struct(rec)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return newError(CodeInvalidFormat, fe.Field(), "%s failed the %q rule.", fe.Field(), fe.Tag())
	}

	return errors.Wrap(err, "could not validate record")
}
