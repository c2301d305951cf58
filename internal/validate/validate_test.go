package validate_test

import (
	"testing"

	"github.com/denismitr/keeper/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAmount(t *testing.T) {
	tt := []struct {
		in   string
		want float64
		code validate.Code
	}{
		{in: "500", want: 500},
		{in: " 12.346 ", want: 12.35},
		{in: "0.001", code: validate.CodeNotPositive},
		{in: "0", code: validate.CodeNotPositive},
		{in: "-5", code: validate.CodeNotPositive},
		{in: "abc", code: validate.CodeNotNumeric},
		{in: "", code: validate.CodeNotNumeric},
		{in: "NaN", code: validate.CodeNotNumeric},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			got, err := validate.Amount("Amount", tc.in)
			if tc.code != "" {
				require.Error(t, err)
				assert.True(t, validate.HasCode(err, tc.code), err.Error())
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPIN(t *testing.T) {
	for in, ok := range map[string]bool{
		"1234":  true,
		"9999":  true,
		"1000":  true,
		"0999":  false,
		"999":   false,
		"10000": false,
		"12a4":  false,
		"":      false,
	} {
		t.Run(in, func(t *testing.T) {
			_, err := validate.PIN(in)
			if ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, validate.HasCode(err, validate.CodeInvalidPIN))
			}
		})
	}
}

func TestWithdrawal(t *testing.T) {
	assert.NoError(t, validate.Withdrawal(100, 100, 0))
	assert.True(t, validate.HasCode(validate.Withdrawal(100.01, 100, 0), validate.CodeInsufficientFunds))
	assert.NoError(t, validate.Withdrawal(20100, 100, 20000))
	assert.True(t, validate.HasCode(validate.Withdrawal(20100.01, 100, 20000), validate.CodeInsufficientFunds))
}

func TestUnique(t *testing.T) {
	taken := map[string]bool{"dune": true}
	lookup := func(v string) bool { return taken[v] }

	assert.True(t, validate.HasCode(validate.Unique("Title", "dune", lookup), validate.CodeDuplicate))
	assert.NoError(t, validate.Unique("Title", "emma", lookup))
}

func TestPhone(t *testing.T) {
	_, err := validate.Phone("+91 98765 43210", "IN")
	assert.NoError(t, err)

	_, err = validate.Phone("9876543210", "IN")
	assert.NoError(t, err)

	_, err = validate.Phone("12", "IN")
	assert.True(t, validate.HasCode(err, validate.CodeInvalidFormat))

	_, err = validate.Phone("not a phone", "IN")
	assert.True(t, validate.HasCode(err, validate.CodeInvalidFormat))
}

func TestEmail(t *testing.T) {
	got, err := validate.Email(" alice@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got)

	for _, in := range []string{"", "alice", "alice@", "@example.com"} {
		_, err := validate.Email(in)
		assert.True(t, validate.HasCode(err, validate.CodeInvalidFormat), in)
	}
}

func TestChoice(t *testing.T) {
	got, err := validate.Choice("Account type", " Savings ", "savings", "checking")
	require.NoError(t, err)
	assert.Equal(t, "savings", got)

	_, err = validate.Choice("Account type", "credit", "savings", "checking")
	assert.True(t, validate.HasCode(err, validate.CodeInvalidChoice))
	assert.EqualError(t, err, "Account type must be one of savings, checking.")
}

func TestStruct(t *testing.T) {
	type rec struct {
		Name string `validate:"required"`
		Kind string `validate:"oneof=savings checking"`
	}

	assert.NoError(t, validate.Struct(rec{Name: "Ann", Kind: "savings"}))

	err := validate.Struct(rec{Kind: "savings"})
	assert.True(t, validate.HasCode(err, validate.CodeInvalidFormat))
	assert.EqualError(t, err, `Name failed the "required" rule.`)
}

func TestRequired(t *testing.T) {
	got, err := validate.Required("Name", "  Ann ")
	require.NoError(t, err)
	assert.Equal(t, "Ann", got)

	_, err = validate.Required("Name", "   ")
	assert.True(t, validate.HasCode(err, validate.CodeRequired))
}
