package cli

import (
	"context"
	"fmt"

	"github.com/denismitr/keeper/internal/bank"
	"github.com/denismitr/keeper/internal/console"
	"github.com/pkg/errors"
)

const pinAttempts = 3

var ErrTooManyPINAttempts = errors.New("too many incorrect pin attempts, returning to main menu")

type bankMenu struct {
	s *Session
	b *bank.Bank
}

func runBank(ctx context.Context, s *Session) error {
	accounts, err := s.Open("accounts.json", nil)
	if err != nil {
		return err
	}

	journal, err := s.Journal("transactions.json")
	if err != nil {
		return err
	}

	bm := &bankMenu{
		s: s,
		b: bank.New(accounts, journal, bank.Config{
			InterestRate:   s.Config.Bank.InterestRate,
			OverdraftLimit: s.Config.Bank.OverdraftLimit,
			Logger:         s.Log,
		}),
	}

	m := console.NewMenu("Bank Simulator", s.Prompt, s.Report,
		console.Item{Label: "Create account (savings/checking)", Action: bm.guard(bm.create)},
		console.Item{Label: "Deposit money", Action: bm.guard(bm.deposit)},
		console.Item{Label: "Withdraw money", Action: bm.guard(bm.withdraw)},
		console.Item{Label: "Transfer money between accounts", Action: bm.guard(bm.transfer)},
		console.Item{Label: "Add interest (for savings)", Action: bm.guard(bm.interest)},
		console.Item{Label: "Display all accounts", Action: bm.guard(bm.display)},
	)
	m.Farewell = "Thank you for banking with us!"

	return m.Run(ctx)
}

func (bm *bankMenu) guard(fn console.Action) console.Action {
	return func(ctx context.Context) error {
		return bm.s.handle(fn(ctx))
	}
}

func (bm *bankMenu) create(ctx context.Context) error {
	p := bm.s.Prompt

	holder, err := p.Line("Enter account holder name: ")
	if err != nil {
		return err
	}

	kind, err := p.Line("Enter account type (savings/checking): ")
	if err != nil {
		return err
	}

	balance, err := p.Line("Enter initial balance: ")
	if err != nil {
		return err
	}

	pin, err := p.Line("Set a 4 digit pin: ")
	if err != nil {
		return err
	}

	acc, err := bm.b.CreateAccount(ctx, holder, kind, balance, pin)
	if err != nil {
		return err
	}

	bm.s.Report.Info("Account %s created successfully for %s.", acc.Number, acc.Holder)

	return nil
}

// account asks for an account number and its pin, allowing
// pinAttempts tries.
func (bm *bankMenu) account(prompt string) (number, pin string, err error) {
	number, err = bm.s.Prompt.Line(prompt)
	if err != nil {
		return "", "", err
	}

	if _, err := bm.b.Account(number); err != nil {
		return "", "", err
	}

	for attempt := 1; attempt <= pinAttempts; attempt++ {
		pin, err = bm.s.Prompt.Line("Enter pin: ")
		if err != nil {
			return "", "", err
		}

		err = bm.b.VerifyPIN(number, pin)
		if err == nil {
			return number, pin, nil
		}

		if !errors.Is(err, bank.ErrWrongPIN) {
			return "", "", err
		}

		if left := pinAttempts - attempt; left > 0 {
			bm.s.Report.Warn("Incorrect pin, %d attempt(s) left.", left)
		}
	}

	return "", "", ErrTooManyPINAttempts
}

func (bm *bankMenu) deposit(ctx context.Context) error {
	number, pin, err := bm.account("Enter account number: ")
	if err != nil {
		return err
	}

	amount, err := bm.s.Prompt.Line("Enter amount to deposit: ")
	if err != nil {
		return err
	}

	acc, err := bm.b.Deposit(ctx, number, pin, amount)
	if err != nil {
		return err
	}

	bm.s.Report.Info("Amount deposited, new balance is %.2f.", acc.Balance)

	return nil
}

func (bm *bankMenu) withdraw(ctx context.Context) error {
	number, pin, err := bm.account("Enter account number: ")
	if err != nil {
		return err
	}

	amount, err := bm.s.Prompt.Line("Enter amount to withdraw: ")
	if err != nil {
		return err
	}

	acc, err := bm.b.Withdraw(ctx, number, pin, amount)
	if err != nil {
		return err
	}

	bm.s.Report.Info("Amount withdrawn, new balance is %.2f.", acc.Balance)

	return nil
}

func (bm *bankMenu) transfer(ctx context.Context) error {
	from, pin, err := bm.account("Enter source account number: ")
	if err != nil {
		return err
	}

	to, err := bm.s.Prompt.Line("Enter target account number: ")
	if err != nil {
		return err
	}

	amount, err := bm.s.Prompt.Line("Enter amount to transfer: ")
	if err != nil {
		return err
	}

	source, target, err := bm.b.Transfer(ctx, from, to, pin, amount)
	if err != nil {
		return err
	}

	bm.s.Report.Info("Transfer complete. Balance of %s is %.2f, balance of %s is %.2f.",
		source.Number, source.Balance, target.Number, target.Balance)

	return nil
}

func (bm *bankMenu) interest(ctx context.Context) error {
	number, _, err := bm.account("Enter savings account number: ")
	if err != nil {
		return err
	}

	acc, credited, err := bm.b.AddInterest(ctx, number)
	if err != nil {
		return err
	}

	bm.s.Report.Info("Interest of %.2f added, new balance is %.2f.", credited, acc.Balance)

	return nil
}

func (bm *bankMenu) display(ctx context.Context) error {
	views, err := bm.b.Accounts(ctx)
	if err != nil {
		return err
	}

	if len(views) == 0 {
		bm.s.Report.Info("No accounts found.")
		return nil
	}

	rows := make([][]string, 0, len(views))
	for _, v := range views {
		rows = append(rows, []string{v.Number, v.Holder, fmt.Sprintf("%.2f", v.Balance), string(v.Kind)})
	}

	bm.s.Println(console.Table([]string{"Account Number", "Account Holder", "Balance", "Type"}, rows))

	return nil
}
