// Package apperr defines errors that carry an HTTP status and a business code.
package apperr

import (
	"net/http"

	"github.com/pkg/errors"
)

// Error is an application error that the HTTP layer can render directly.
type Error struct {
	Status  int
	Code    string
	Message string
	Details string
}

func New(status int, code, message string) *Error {
	return &Error{Status: status, Code: code, Message: message}
}

func (e *Error) Error() string { return e.Message }

// WithDetails returns a copy carrying extra detail text.
func (e *Error) WithDetails(details string) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy with a more specific user-facing message.
func (e *Error) WithMessage(msg string) *Error {
	cp := *e
	cp.Message = msg
	return &cp
}

// Is matches on the business code so copies made by WithDetails/WithMessage still match.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func BadRequest(msg string) *Error { return ErrValidation.WithMessage(msg) }
func NotFound(what string) *Error { return ErrNotFound.WithMessage(what + " not found") }
func Forbidden(msg string) *Error { return ErrForbidden.WithMessage(msg) }
func Conflict(msg string) *Error { return ErrConflict.WithMessage(msg) }

var (
	ErrValidation   = New(http.StatusBadRequest, "VALIDATION_FAILED", "invalid input")
	ErrUnauthorized = New(http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
	ErrForbidden    = New(http.StatusForbidden, "FORBIDDEN", "permission denied")
	ErrNotFound     = New(http.StatusNotFound, "NOT_FOUND", "resource not found")
	ErrConflict     = New(http.StatusConflict, "CONFLICT", "resource already exists")
	ErrTimeout      = New(http.StatusGatewayTimeout, "TIMEOUT", "operation timed out")
	ErrUpstream     = New(http.StatusBadGateway, "UPSTREAM_FAILED", "payment provider request failed")

	ErrInvalidCredentials = New(http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrNotVerified        = New(http.StatusForbidden, "EMAIL_NOT_VERIFIED", "email address not verified")
	ErrInvalidOTP         = New(http.StatusBadRequest, "INVALID_OTP", "invalid or expired code")
	ErrInvalidResetToken  = New(http.StatusBadRequest, "INVALID_RESET_TOKEN", "invalid or expired reset token")
	ErrEmailTaken         = New(http.StatusConflict, "USER_ALREADY_EXISTS", "email already registered")

	ErrCartEmpty         = New(http.StatusBadRequest, "CART_EMPTY", "cart is empty")
	ErrInsufficientStock = New(http.StatusBadRequest, "INSUFFICIENT_STOCK", "insufficient stock")
	ErrProductInactive   = New(http.StatusBadRequest, "PRODUCT_UNAVAILABLE", "product is not available")
	ErrInvalidTransition = New(http.StatusBadRequest, "INVALID_STATUS_TRANSITION", "status change not allowed")
	ErrInsufficientFunds = New(http.StatusBadRequest, "INSUFFICIENT_BALANCE", "amount exceeds available balance")
	ErrBadSignature      = New(http.StatusUnauthorized, "INVALID_SIGNATURE", "invalid webhook signature")
)
