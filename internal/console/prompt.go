// Package console reads answers from the user and renders menus, headers
// and listings.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInputClosed is returned once the input stream is exhausted.
var ErrInputClosed = errors.New("input closed")

const invalidNumber = "Please enter a whole number."

type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewScanner(in), out: out}
}

func (p *Prompter) Out() io.Writer {
	return p.out
}

// Line prints prompt and returns the next input line without its
// trailing newline.
func (p *Prompter) Line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)

	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", errors.Wrap(err, "could not read input")
		}
		return "", ErrInputClosed
	}

	return strings.TrimRight(p.in.Text(), "\r"), nil
}

// Int asks until the answer parses as an integer.
func (p *Prompter) Int(prompt string) (int, error) {
	for {
		s, err := p.Line(prompt)
		if err != nil {
			return 0, err
		}

		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err == nil {
			return n, nil
		}

		fmt.Fprintln(p.out, invalidNumber)
	}
}

// Confirm reads a y/n answer. Anything else counts as no and says so.
func (p *Prompter) Confirm(prompt string) (bool, error) {
	s, err := p.Line(prompt + " (y/n): ")
	if err != nil {
		return false, err
	}

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y":
		return true, nil
	case "n":
		return false, nil
	default:
		fmt.Fprintln(p.out, "Invalid choice, returning to main menu.")
		return false, nil
	}
}
