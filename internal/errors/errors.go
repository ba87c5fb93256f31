package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound   ErrorCode = "account_not_found"
	AccountInactive   ErrorCode = "account_inactive"
	DuplicateAccount  ErrorCode = "duplicate_account"
	InsufficientFunds ErrorCode = "insufficient_funds"
	InvalidAmount     ErrorCode = "invalid_amount"
	InvalidInput      ErrorCode = "invalid_input"
	InvalidAccountID  ErrorCode = "invalid_account_id"
	InternalError     ErrorCode = "internal_error"
)

// Role tells which side of a transfer an error refers to.
type Role string

const (
	RoleSource      Role = "source"
	RoleDestination Role = "destination"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Role    Role      `json:"role,omitempty"`
	Field   string    `json:"field,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is reports whether target is an *AppError with the same code, so role or
// field tagged errors still match the predefined ones below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case AccountNotFound:
		return http.StatusNotFound
	case InternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// IsBusiness reports whether err is a business rule failure rather than an
// infrastructure fault.
func IsBusiness(err error) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code != InternalError
}

// AsAppError unwraps err into an *AppError. Anything that is not already one
// becomes an internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return NewAppError(InternalError, "an unexpected error occurred").WithDetails(err.Error())
}

func Internal(message string, err error) *AppError {
	return NewAppError(InternalError, message).WithDetails(err.Error())
}

func NotFound(role Role) *AppError {
	if role == "" {
		return NewAppError(AccountNotFound, "account not found")
	}
	return &AppError{
		Code:    AccountNotFound,
		Message: fmt.Sprintf("%s account not found", role),
		Role:    role,
	}
}

func Inactive(role Role) *AppError {
	if role == "" {
		return NewAppError(AccountInactive, "account is inactive")
	}
	return &AppError{
		Code:    AccountInactive,
		Message: fmt.Sprintf("%s account is inactive", role),
		Role:    role,
	}
}

// Duplicate names the unique field that collided: "number" or "holderTaxId".
func Duplicate(field string) *AppError {
	return &AppError{
		Code:    DuplicateAccount,
		Message: fmt.Sprintf("account with this %s already exists", field),
		Field:   field,
	}
}

// Predefined errors for common cases
var (
	ErrAccountNotFound        = NewAppError(AccountNotFound, "account not found")
	ErrAccountInactive        = NewAppError(AccountInactive, "account is inactive")
	ErrDuplicateAccount       = NewAppError(DuplicateAccount, "account already exists")
	ErrInsufficientFunds      = NewAppError(InsufficientFunds, "insufficient funds")
	ErrInvalidAmount          = NewAppError(InvalidAmount, "amount must be positive, at most 9999999999999.99, with at most two decimal places")
	ErrBalanceLimitExceeded   = NewAppError(InvalidAmount, "resulting balance would exceed 9999999999999.99")
	ErrInvalidAccountID       = NewAppError(InvalidAccountID, "account ID must be a positive integer")
	ErrCannotBeginTransaction = NewAppError(InternalError, "cannot begin a transaction inside a transaction")
)
