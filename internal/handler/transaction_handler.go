package handler

import (
	"encoding/json"
	"net/http"

	"bankify-ledger/internal/errors"
	"bankify-ledger/internal/service"
)

type TransactionHandler struct {
	transactionService *service.TransactionService
}

func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMovement(w, r)
	if !ok {
		return
	}

	account, err := h.transactionService.Deposit(r.Context(), req.AccountID, req.Amount)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NewAccountResponse(account))
}

func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeMovement(w, r)
	if !ok {
		return
	}

	account, err := h.transactionService.Withdraw(r.Context(), req.AccountID, req.Amount)
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NewAccountResponse(account))
}

// Transfer responds with the updated source account.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	if req.SourceAccountID <= 0 || req.DestinationAccountID <= 0 {
		writeError(w, errors.ErrInvalidAccountID)
		return
	}

	result, err := h.transactionService.Transfer(r.Context(), &service.TransferRequest{
		SourceAccountID:      req.SourceAccountID,
		DestinationAccountID: req.DestinationAccountID,
		Amount:               req.Amount,
	})
	if err != nil {
		writeOperationError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, NewAccountResponse(result.Source))
}

func decodeMovement(w http.ResponseWriter, r *http.Request) (MovementRequest, bool) {
	var req MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return req, false
	}

	if req.AccountID <= 0 {
		writeError(w, errors.ErrInvalidAccountID)
		return req, false
	}
	return req, true
}
