package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound   ErrorCode = "account_not_found"
	UserNotFound      ErrorCode = "user_not_found"
	AccountNotActive  ErrorCode = "account_not_active"
	InsufficientFunds ErrorCode = "insufficient_funds"
	Unauthorized      ErrorCode = "unauthorized"
	Forbidden         ErrorCode = "forbidden"
	Conflict          ErrorCode = "conflict"
	ValidationFailed  ErrorCode = "validation_failed"
	InvalidAmount     ErrorCode = "invalid_amount"
	InvalidInput      ErrorCode = "invalid_input"
	InternalError     ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
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

// NewValidationError aggregates field-level input errors into a single
// response-shaped error.
func NewValidationError(fields map[string]string) *AppError {
	return &AppError{
		Code:    ValidationFailed,
		Message: "validation failed",
		Fields:  fields,
	}
}

func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case AccountNotFound, UserNotFound:
		return http.StatusNotFound
	case InsufficientFunds, AccountNotActive, ValidationFailed, InvalidAmount, InvalidInput:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	// Ownership failures are reported as a plain not-found so that callers
	// cannot probe for the existence of accounts they do not own.
	ErrAccountNotFound   = NewAppError(AccountNotFound, "account not found")
	ErrUserNotFound      = NewAppError(UserNotFound, "user not found")
	ErrAccountNotActive  = NewAppError(AccountNotActive, "account is not active")
	ErrInsufficientFunds = NewAppError(InsufficientFunds, "not enough balance")
	ErrUnauthorized      = NewAppError(Unauthorized, "unauthorized")
	ErrForbidden         = NewAppError(Forbidden, "admin access required")
	ErrEmailInUse        = NewAppError(Conflict, "email address already in use")
	ErrPhoneInUse        = NewAppError(Conflict, "phone number already in use")
)
