// Package bank implements savings and checking accounts on top of a
// keeper store, with every money movement written to a journal.
package bank

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"

	"github.com/denismitr/keeper"
	"github.com/denismitr/keeper/internal/validate"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var ErrAccountNotFound = errors.New("could not find account number")
var ErrWrongPIN = errors.New("failed to validate the account pin")
var ErrNotSavings = errors.New("cannot add interest to a checking account")
var ErrSameAccount = errors.New("cannot transfer to the same account")

const accountNumberDigits = 7

type Config struct {
	InterestRate   float64
	OverdraftLimit float64
	Logger         *zap.Logger
}

type Bank struct {
	accounts *keeper.Store
	journal  *keeper.Journal
	cfg      Config
	log      *zap.Logger
}

func New(accounts *keeper.Store, journal *keeper.Journal, cfg Config) *Bank {
	if cfg.InterestRate == 0 {
		cfg.InterestRate = DefaultInterestRate
	}

	if cfg.OverdraftLimit == 0 {
		cfg.OverdraftLimit = DefaultOverdraftLimit
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Bank{
		accounts: accounts,
		journal:  journal,
		cfg:      cfg,
		log:      cfg.Logger.Named("bank"),
	}
}

// CreateAccount validates every input before generating a fresh account
// number and saving the account.
func (b *Bank) CreateAccount(ctx context.Context, holder, kind, balance, pin string) (*Account, error) {
	holder, err := validate.Required("Account holder", holder)
	if err != nil {
		return nil, err
	}

	k, err := validate.Choice("Account type", kind, string(Savings), string(Checking))
	if err != nil {
		return nil, err
	}

	amount, err := validate.Amount("Account balance", balance)
	if err != nil {
		return nil, err
	}

	p, err := validate.PIN(pin)
	if err != nil {
		return nil, err
	}

	acc := &Account{Holder: holder, Balance: amount, PIN: p, Kind: Kind(k)}
	b.applyKindDefaults(acc)

	if err := validate.Struct(acc); err != nil {
		return nil, err
	}

	err = b.accounts.Update(ctx, func(tx *keeper.Tx) error {
		number, err := generateAccountNumber(tx.Has)
		if err != nil {
			return err
		}

		acc.Number = number
		return tx.Insert(number, acc)
	})
	if err != nil {
		return nil, err
	}

	b.log.Info("created account", zap.String("account", acc.Number), zap.String("type", k))

	return acc, nil
}

func (b *Bank) Account(number string) (*Account, error) {
	doc, err := b.accounts.Get(number)
	if err != nil {
		if errors.Is(err, keeper.ErrKeyDoesNotExist) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return b.decodeAccount(doc)
}

func (b *Bank) VerifyPIN(number, pin string) error {
	acc, err := b.Account(number)
	if err != nil {
		return err
	}

	return checkPIN(acc, pin)
}

func (b *Bank) Deposit(ctx context.Context, number, pin, amount string) (*Account, error) {
	var acc *Account
	err := b.accounts.Update(ctx, func(tx *keeper.Tx) error {
		var err error
		if acc, err = b.accountInTx(tx, number); err != nil {
			return err
		}

		if err := checkPIN(acc, pin); err != nil {
			return err
		}

		n, err := validate.Amount("Deposit amount", amount)
		if err != nil {
			return err
		}

		acc.Balance = validate.RoundCents(acc.Balance + n)
		if err := tx.Replace(number, acc); err != nil {
			return err
		}

		return b.record(ctx, acc, TxDeposit, n)
	})
	if err != nil {
		return nil, err
	}

	return acc, nil
}

func (b *Bank) Withdraw(ctx context.Context, number, pin, amount string) (*Account, error) {
	var acc *Account
	err := b.accounts.Update(ctx, func(tx *keeper.Tx) error {
		var err error
		if acc, err = b.accountInTx(tx, number); err != nil {
			return err
		}

		if err := checkPIN(acc, pin); err != nil {
			return err
		}

		n, err := validate.Amount("Withdraw amount", amount)
		if err != nil {
			return err
		}

		if err := validate.Withdrawal(n, acc.Balance, acc.Overdraft()); err != nil {
			return err
		}

		acc.Balance = validate.RoundCents(acc.Balance - n)
		if err := tx.Replace(number, acc); err != nil {
			return err
		}

		return b.record(ctx, acc, TxWithdraw, n)
	})
	if err != nil {
		return nil, err
	}

	return acc, nil
}

// Transfer moves amount between two accounts in a single commit. The
// source account's PIN is required and its withdrawal rules apply.
func (b *Bank) Transfer(ctx context.Context, from, to, pin, amount string) (source, target *Account, err error) {
	if from == to {
		return nil, nil, ErrSameAccount
	}

	err = b.accounts.Update(ctx, func(tx *keeper.Tx) error {
		var err error
		if source, err = b.accountInTx(tx, from); err != nil {
			return err
		}

		if target, err = b.accountInTx(tx, to); err != nil {
			return err
		}

		if err := checkPIN(source, pin); err != nil {
			return err
		}

		n, err := validate.Amount("Transfer amount", amount)
		if err != nil {
			return err
		}

		if err := validate.Withdrawal(n, source.Balance, source.Overdraft()); err != nil {
			return err
		}

		source.Balance = validate.RoundCents(source.Balance - n)
		target.Balance = validate.RoundCents(target.Balance + n)

		if err := tx.Replace(from, source); err != nil {
			return err
		}

		if err := tx.Replace(to, target); err != nil {
			return err
		}

		if err := b.record(ctx, source, TxTransferSource, n); err != nil {
			return err
		}

		return b.record(ctx, target, TxTransferTarget, n)
	})
	if err != nil {
		return nil, nil, err
	}

	b.log.Info("transfer complete", zap.String("from", from), zap.String("to", to))

	return source, target, nil
}

// AddInterest credits one period of interest to a savings account and
// returns the amount credited.
func (b *Bank) AddInterest(ctx context.Context, number string) (*Account, float64, error) {
	var (
		acc      *Account
		credited float64
	)

	err := b.accounts.Update(ctx, func(tx *keeper.Tx) error {
		var err error
		if acc, err = b.accountInTx(tx, number); err != nil {
			return err
		}

		switch acc.Kind {
		case Savings:
			credited = validate.RoundCents(acc.Balance * acc.InterestRate / 100)
		default:
			return ErrNotSavings
		}

		acc.Balance = validate.RoundCents(acc.Balance + credited)
		if err := tx.Replace(number, acc); err != nil {
			return err
		}

		return b.record(ctx, acc, TxInterest, credited)
	})
	if err != nil {
		return nil, 0, err
	}

	return acc, credited, nil
}

func (b *Bank) Accounts(ctx context.Context) ([]AccountView, error) {
	docs, err := b.accounts.Find(ctx, keeper.Q())
	if err != nil {
		return nil, err
	}

	views := make([]AccountView, 0, len(docs))
	for _, d := range docs {
		acc, err := b.decodeAccount(d)
		if err != nil {
			return nil, errors.Wrapf(err, "account %s", d.Key())
		}
		views = append(views, acc.View())
	}

	return views, nil
}

func (b *Bank) Transactions(ctx context.Context, number string) ([]Transaction, error) {
	docs, err := b.journal.Entries(ctx, number)
	if err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(docs))
	for _, d := range docs {
		var t Transaction
		if err := d.Unmarshal(&t); err != nil {
			return nil, errors.Wrapf(err, "transaction %s", d.Key())
		}
		txs = append(txs, t)
	}

	return txs, nil
}

func (b *Bank) accountInTx(tx *keeper.Tx, number string) (*Account, error) {
	doc, err := tx.Get(number)
	if err != nil {
		if errors.Is(err, keeper.ErrKeyDoesNotExist) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return b.decodeAccount(doc)
}

// record appends to the journal. It runs inside the accounts
// transaction, so a failed append rolls the balance change back.
func (b *Bank) record(ctx context.Context, acc *Account, kind string, amount float64) error {
	at := b.journal.Now()
	_, err := b.journal.Append(ctx, acc.Number, at, Transaction{
		ID:      uuid.NewString(),
		Type:    kind,
		Amount:  amount,
		Time:    at.Format(keeper.JournalTimeLayout),
		Balance: acc.Balance,
	})
	if err != nil {
		return err
	}

	b.log.Info("recorded transaction",
		zap.String("account", acc.Number),
		zap.String("type", kind),
		zap.Float64("amount", amount),
	)

	return nil
}

func checkPIN(acc *Account, pin string) error {
	p, err := strconv.Atoi(strings.TrimSpace(pin))
	if err != nil || p != acc.PIN {
		return ErrWrongPIN
	}
	return nil
}

func generateAccountNumber(taken func(string) bool) (string, error) {
	lower := int64(1)
	for i := 1; i < accountNumberDigits; i++ {
		lower *= 10
	}
	span := big.NewInt(lower*10 - lower)

	for {
		n, err := rand.Int(rand.Reader, span)
		if err != nil {
			return "", errors.Wrap(err, "could not generate account number")
		}

		number := strconv.FormatInt(n.Int64()+lower, 10)
		if !taken(number) {
			return number, nil
		}
	}
}
