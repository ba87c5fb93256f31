package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankify-ledger/internal/errors"
)

// DateLayout is the wire and storage format of Account.OpenedOn.
const DateLayout = "2006-01-02"

// BalanceScale is the number of fractional digits kept for balances and amounts.
const BalanceScale = 2

const (
	// maxIntegerDigits matches the NUMERIC(15,2) balance column.
	maxIntegerDigits = 13
	// minExponent bounds trailing zeros such as 1.000000 so that rounding
	// never rescales by a large power of ten.
	minExponent = -(BalanceScale + 4)
	// maxCoefficientBits fits MaxBalance written at minExponent: 10^19 < 2^64.
	maxCoefficientBits = 64
)

// MaxBalance is the largest balance an account can hold.
var MaxBalance = decimal.New(1, maxIntegerDigits).Sub(decimal.New(1, -BalanceScale))

type AccountKind string

const (
	KindChecking AccountKind = "CHECKING"
	KindSavings  AccountKind = "SAVINGS"
	KindPayroll  AccountKind = "PAYROLL"
)

func (k AccountKind) Valid() bool {
	switch k {
	case KindChecking, KindSavings, KindPayroll:
		return true
	}
	return false
}

type Account struct {
	ID          int64
	Number      string
	BranchCode  string
	HolderName  string
	HolderTaxID string
	OpenedOn    time.Time
	Balance     decimal.Decimal
	Active      bool
	Kind        AccountKind
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the shape of a candidate account before it is opened.
// now is the reference for the "opened on or before today" rule.
func (a *Account) Validate(now time.Time) error {
	var problems []string

	if strings.TrimSpace(a.Number) == "" {
		problems = append(problems, "number is required")
	}
	if strings.TrimSpace(a.BranchCode) == "" {
		problems = append(problems, "branchCode is required")
	}
	if strings.TrimSpace(a.HolderName) == "" {
		problems = append(problems, "holderName is required")
	}
	if strings.TrimSpace(a.HolderTaxID) == "" {
		problems = append(problems, "holderTaxId is required")
	}
	if a.OpenedOn.IsZero() {
		problems = append(problems, "openedOn is required")
	} else if truncateToDate(a.OpenedOn).After(truncateToDate(now)) {
		problems = append(problems, "openedOn cannot be in the future")
	}
	if !a.Kind.Valid() {
		problems = append(problems, "kind must be one of CHECKING, SAVINGS, PAYROLL")
	}

	if len(problems) > 0 {
		return errors.NewAppError(errors.InvalidInput, "validation failed").
			WithDetails(strings.Join(problems, "; "))
	}

	if a.Balance.IsNegative() || !InBalanceRange(a.Balance) {
		return errors.NewAppError(errors.InvalidAmount, "initial balance must be between 0.00 and 9999999999999.99 with at most two decimal places")
	}

	return nil
}

// CanMoveFunds reports whether the account accepts deposits, withdrawals and transfers.
func (a *Account) CanMoveFunds() bool {
	return a.Active
}

func (a *Account) HasSufficientFunds(amount decimal.Decimal) bool {
	return a.Balance.GreaterThanOrEqual(amount)
}

// CanCredit reports whether crediting amount keeps the balance within MaxBalance.
func (a *Account) CanCredit(amount decimal.Decimal) bool {
	return a.Balance.Add(amount).LessThanOrEqual(MaxBalance)
}

func (a *Account) Credit(amount decimal.Decimal) {
	a.Balance = a.Balance.Add(amount)
}

func (a *Account) Debit(amount decimal.Decimal) {
	a.Balance = a.Balance.Sub(amount)
}

// ValidateAmount accepts strictly positive amounts up to MaxBalance with at
// most two fractional digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() || !InBalanceRange(amount) {
		return errors.ErrInvalidAmount
	}
	return nil
}

// InBalanceRange reports whether |d| <= MaxBalance and d has at most two
// fractional digits. The exponent and coefficient size are checked before any
// arithmetic, so absurd exponents are rejected without rescaling.
func InBalanceRange(d decimal.Decimal) bool {
	exp := int(d.Exponent())
	if exp < minExponent || exp > maxIntegerDigits {
		return false
	}
	if d.Coefficient().BitLen() > maxCoefficientBits {
		return false
	}
	return d.Abs().LessThanOrEqual(MaxBalance) && hasBalanceScale(d)
}

// hasBalanceScale must only see values already bounded by InBalanceRange.
func hasBalanceScale(d decimal.Decimal) bool {
	return d.Equal(d.Round(BalanceScale))
}

func truncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AccountRepository is the account store contract. Lookups of a missing id
// return errors.ErrAccountNotFound.
type AccountRepository interface {
	CreateAccount(ctx context.Context, account *Account) error
	GetAccount(ctx context.Context, id int64) (*Account, error)
	// GetAccountForUpdate locks the account until the surrounding transaction ends.
	GetAccountForUpdate(ctx context.Context, id int64) (*Account, error)
	ListAccounts(ctx context.Context) ([]*Account, error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)
	ExistsByHolderTaxID(ctx context.Context, taxID string) (bool, error)
	SaveAccount(ctx context.Context, account *Account) error
}

// Store is a unit of work over the account repository.
type Store interface {
	Account() AccountRepository
	WithTransaction(ctx context.Context, fn func(tx Store) error) error
	Ping(ctx context.Context) error
}
