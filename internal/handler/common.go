package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"bankify-ledger/internal/errors"
)

type Response struct {
	Error *Error `json:"error,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, appErr *errors.AppError) {
	writeErrorStatus(w, appErr.HTTPStatus(), appErr)
}

// writeOperationError reports a failed deposit, withdrawal or transfer. Every
// business failure is a 400 there, a missing account included.
func writeOperationError(w http.ResponseWriter, err error) {
	appErr := errors.AsAppError(err)
	if appErr.Code == errors.InternalError {
		writeError(w, appErr)
		return
	}
	writeErrorStatus(w, http.StatusBadRequest, appErr)
}

func writeErrorStatus(w http.ResponseWriter, statusCode int, appErr *errors.AppError) {
	w.Header().Set("Content-Type", "application/json")

	errResponse := Error{
		Code:    string(appErr.Code),
		Message: appErr.Message,
		Details: appErr.Details,
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(Response{Error: &errResponse})
}

func accountIDFromPath(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.ErrInvalidAccountID
	}
	return id, nil
}
