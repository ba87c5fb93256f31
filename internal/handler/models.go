package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bankify-ledger/internal/domain"
	"bankify-ledger/internal/errors"
)

type CreateAccountRequest struct {
	Number      string           `json:"number"`
	BranchCode  string           `json:"branchCode"`
	HolderName  string           `json:"holderName"`
	HolderTaxID string           `json:"holderTaxId"`
	OpenedOn    string           `json:"openedOn"`
	Balance     *decimal.Decimal `json:"balance"`
	Kind        string           `json:"kind"`
}

// ToAccount checks the request shape and converts it into a candidate account.
func (r CreateAccountRequest) ToAccount(now time.Time) (*domain.Account, error) {
	if r.Balance == nil {
		return nil, errors.NewAppError(errors.InvalidInput, "validation failed").WithDetails("balance is required")
	}

	var openedOn time.Time
	if strings.TrimSpace(r.OpenedOn) != "" {
		parsed, err := time.Parse(domain.DateLayout, strings.TrimSpace(r.OpenedOn))
		if err != nil {
			return nil, errors.NewAppError(errors.InvalidInput, "validation failed").WithDetails("openedOn must be a YYYY-MM-DD date")
		}
		openedOn = parsed
	}

	account := &domain.Account{
		Number:      strings.TrimSpace(r.Number),
		BranchCode:  strings.TrimSpace(r.BranchCode),
		HolderName:  strings.TrimSpace(r.HolderName),
		HolderTaxID: strings.TrimSpace(r.HolderTaxID),
		OpenedOn:    openedOn,
		Balance:     *r.Balance,
		Kind:        domain.AccountKind(strings.ToUpper(strings.TrimSpace(r.Kind))),
	}

	if err := account.Validate(now); err != nil {
		return nil, err
	}
	return account, nil
}

type AccountResponse struct {
	ID          int64  `json:"id"`
	Number      string `json:"number"`
	BranchCode  string `json:"branchCode"`
	HolderName  string `json:"holderName"`
	HolderTaxID string `json:"holderTaxId"`
	OpenedOn    string `json:"openedOn"`
	Balance     string `json:"balance"`
	Active      bool   `json:"active"`
	Kind        string `json:"kind"`
}

func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:          account.ID,
		Number:      account.Number,
		BranchCode:  account.BranchCode,
		HolderName:  account.HolderName,
		HolderTaxID: account.HolderTaxID,
		OpenedOn:    account.OpenedOn.Format(domain.DateLayout),
		Balance:     account.Balance.StringFixed(domain.BalanceScale),
		Active:      account.Active,
		Kind:        string(account.Kind),
	}
}

// MovementRequest is the body of both deposit and withdraw.
type MovementRequest struct {
	AccountID int64           `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
}

type TransferRequest struct {
	SourceAccountID      int64           `json:"sourceAccountId"`
	DestinationAccountID int64           `json:"destinationAccountId"`
	Amount               decimal.Decimal `json:"amount"`
}
