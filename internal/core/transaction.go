package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Owner identifies one of the two household members a cost is assigned to.
// OwnerShared is the sentinel for split transactions.
type Owner string

const (
	OwnerA      Owner = "a"
	OwnerB      Owner = "b"
	OwnerShared Owner = "shared"
)

// SplitMode says whether a transaction belongs to a single owner or is
// split in half between both.
type SplitMode string

const (
	SplitSingle SplitMode = "single"
	SplitShared SplitMode = "shared"
)

// PaymentMethod tags how a transaction was paid. Empty means cash or bank
// transfer; the card tags feed the per-card totals in the summary.
type PaymentMethod string

const (
	MethodNone   PaymentMethod = ""
	MethodCardX  PaymentMethod = "cardx"
	MethodSpeedy PaymentMethod = "speedy"
)

var (
	ErrEmptyLabel         = errors.New("empty label")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrUnknownMethod      = errors.New("unknown payment method")
	ErrOwnerSplitMismatch = errors.New("owner does not match split mode")
)

// Transaction is one dated ledger entry. Identity is assigned by the store
// on creation; rollover and propagation copies always get a fresh one.
type Transaction struct {
	ID        string
	Period    PeriodKey
	Category  Category
	Label     string
	Amount    decimal.Decimal
	Split     SplitMode
	Owner     Owner
	Note      string
	Recurring bool
	Pinned    bool
	Method    PaymentMethod
	CreatedAt time.Time
}

// Payer returns the owner who nominally pays for this transaction,
// derived from the category's implied payer.
func (t Transaction) Payer() Owner {
	return TraitsOf(t.Category).ImpliedPayer
}

// Shares returns the cost assigned to owner A and owner B. A shared
// transaction splits in exact halves, otherwise the full amount goes to
// the single owner.
func (t Transaction) Shares() (a, b decimal.Decimal) {
	if t.Owner == OwnerShared {
		half := t.Amount.Div(decimal.NewFromInt(2))
		return half, half
	}
	if t.Owner == OwnerA {
		return t.Amount, decimal.Zero
	}
	return decimal.Zero, t.Amount
}

func (t Transaction) Validate() error {
	if err := t.Period.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Label)) == 0 {
		return ErrEmptyLabel
	}
	if len(t.Label) > 200 {
		return errors.New("label too long (max 200 characters)")
	}
	if t.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !KnownCategory(t.Category) {
		return ErrUnknownCategory
	}
	switch t.Split {
	case SplitShared:
		if t.Owner != OwnerShared {
			return ErrOwnerSplitMismatch
		}
	case SplitSingle:
		if t.Owner != OwnerA && t.Owner != OwnerB {
			return ErrOwnerSplitMismatch
		}
	default:
		return ErrOwnerSplitMismatch
	}
	switch t.Method {
	case MethodNone, MethodCardX, MethodSpeedy:
	default:
		return ErrUnknownMethod
	}
	return nil
}

// Settings is the per-period budget record: the salary coming in and the
// savings put aside before discretionary spending.
type Settings struct {
	Salary  decimal.Decimal
	Savings decimal.Decimal
}

// IsZero reports whether both figures are unset or zero.
func (s Settings) IsZero() bool {
	return s.Salary.IsZero() && s.Savings.IsZero()
}
