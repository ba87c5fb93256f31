package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"bankify-ledger/internal/errors"
	"bankify-ledger/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
	now            func() time.Time
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		now:            time.Now,
	}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	candidate, err := req.ToAccount(h.now())
	if err != nil {
		writeError(w, errors.AsAppError(err))
		return
	}

	account, err := h.accountService.OpenAccount(r.Context(), candidate)
	if err != nil {
		writeError(w, errors.AsAppError(err))
		return
	}

	writeJSON(w, http.StatusCreated, NewAccountResponse(account))
}

func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountService.ListAccounts(r.Context())
	if err != nil {
		writeError(w, errors.AsAppError(err))
		return
	}

	response := make([]AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		response = append(response, NewAccountResponse(account))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromPath(r)
	if err != nil {
		writeError(w, errors.AsAppError(err))
		return
	}

	account, err := h.accountService.GetAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, errors.AsAppError(err))
		return
	}

	writeJSON(w, http.StatusOK, NewAccountResponse(account))
}

func (h *AccountHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	accountID, err := accountIDFromPath(r)
	if err != nil {
		writeError(w, errors.AsAppError(err))
		return
	}

	account, err := h.accountService.CloseAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, errors.AsAppError(err))
		return
	}

	writeJSON(w, http.StatusOK, NewAccountResponse(account))
}
