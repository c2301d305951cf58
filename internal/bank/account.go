package bank

import (
	"github.com/denismitr/keeper"
	"github.com/jinzhu/copier"
)

type Kind string

const (
	Savings  Kind = "savings"
	Checking Kind = "checking"
)

const (
	DefaultInterestRate   = 7.0
	DefaultOverdraftLimit = 20000.0
)

// Account is one record of accounts.json. Kind selects which of the
// kind-specific fields applies: InterestRate for savings,
// OverdraftLimit for checking.
type Account struct {
	Number         string  `json:"-"`
	Holder         string  `json:"account_holder" validate:"required"`
	Balance        float64 `json:"balance"`
	PIN            int     `json:"pin" validate:"min=1000,max=9999"`
	Kind           Kind    `json:"type" validate:"oneof=savings checking"`
	InterestRate   float64 `json:"interest_rate,omitempty"`
	OverdraftLimit float64 `json:"overdraft_limit,omitempty"`
}

// Overdraft is how far below zero the balance may go.
func (a *Account) Overdraft() float64 {
	switch a.Kind {
	case Checking:
		return a.OverdraftLimit
	default:
		return 0
	}
}

// AccountView is what listings show; it never carries the PIN.
type AccountView struct {
	Number  string
	Holder  string
	Balance float64
	Kind    Kind
}

func (a *Account) View() AccountView {
	var v AccountView
	if err := copier.Copy(&v, a); err != nil {
		panic("could not copy account view: " + err.Error())
	}
	return v
}

// Transaction is one entry of the bank journal.
type Transaction struct {
	ID      string  `json:"id"`
	Type    string  `json:"transaction_type"`
	Amount  float64 `json:"amount"`
	Time    string  `json:"time"`
	Balance float64 `json:"balance_after"`
}

const (
	TxDeposit        = "deposit"
	TxWithdraw       = "withdraw"
	TxTransferSource = "transfer_source"
	TxTransferTarget = "transfer_target"
	TxInterest       = "interest"
)

func (b *Bank) decodeAccount(doc *keeper.Document) (*Account, error) {
	var acc Account
	if err := doc.Unmarshal(&acc); err != nil {
		return nil, err
	}

	acc.Number = doc.Key()
	b.applyKindDefaults(&acc)

	return &acc, nil
}

// applyKindDefaults fills kind-specific fields that older files lack.
func (b *Bank) applyKindDefaults(acc *Account) {
	switch acc.Kind {
	case Savings:
		acc.OverdraftLimit = 0
		if acc.InterestRate == 0 {
			acc.InterestRate = b.cfg.InterestRate
		}
	case Checking:
		acc.InterestRate = 0
		if acc.OverdraftLimit == 0 {
			acc.OverdraftLimit = b.cfg.OverdraftLimit
		}
	}
}
