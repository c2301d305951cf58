package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/denismitr/keeper/internal/logging"
	"github.com/pkg/errors"
)

const InvalidChoice = "Invalid choice, try again."

type Action func(ctx context.Context) error

type Item struct {
	Label  string
	Action Action
}

// Menu numbers its items from 1 and appends Exit as the last choice.
type Menu struct {
	Title    string
	Items    []Item
	Farewell string

	p *Prompter
	r *logging.Reporter
}

func NewMenu(title string, p *Prompter, r *logging.Reporter, items ...Item) *Menu {
	return &Menu{Title: title, Items: items, p: p, r: r}
}

func (m *Menu) exitChoice() int {
	return len(m.Items) + 1
}

func (m *Menu) Render() string {
	var b strings.Builder
	b.WriteString(Header(m.Title))
	b.WriteString("\n")
	for i, it := range m.Items {
		fmt.Fprintf(&b, "%d. %s\n", i+1, it.Label)
	}
	fmt.Fprintf(&b, "%d. Exit\n", m.exitChoice())

	return b.String()
}

// Run shows the menu until Exit is chosen or input runs out. An error
// returned by an action ends the loop.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(m.p.Out(), m.Render())

		s, err := m.p.Line("\nEnter input: ")
		if err != nil {
			if errors.Is(err, ErrInputClosed) {
				return nil
			}
			return err
		}

		choice, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || choice < 1 || choice > m.exitChoice() {
			m.r.Warn(InvalidChoice)
			continue
		}

		if choice == m.exitChoice() {
			if m.Farewell != "" {
				fmt.Fprintln(m.p.Out(), m.Farewell)
			}
			return nil
		}

		if err := m.Items[choice-1].Action(ctx); err != nil {
			if errors.Is(err, ErrInputClosed) {
				return nil
			}
			return err
		}
	}
}
