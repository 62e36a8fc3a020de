package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrForbidden indicates that the caller is not allowed to act on the resource.
var ErrForbidden = errors.New("forbidden")

// ErrInvalidAmount indicates a non-positive amount, quantity or price.
var ErrInvalidAmount = errors.New("amount must be positive")

// ErrInsufficientFunds indicates that a withdrawal or buy would drive the cash balance negative.
var ErrInsufficientFunds = errors.New("insufficient cash balance")

// ErrInsufficientShares indicates that a sell exceeds the currently held quantity.
var ErrInsufficientShares = errors.New("insufficient shares held")

// ErrUnknownSymbol indicates that no price could be resolved for an instrument.
var ErrUnknownSymbol = errors.New("unknown symbol")

// ErrConcurrentModification indicates that the portfolio changed between reading
// its state and committing. The conflict is expected under concurrent load and is
// safe to retry against fresh state.
var ErrConcurrentModification = errors.New("portfolio was concurrently modified")

// ErrPersistence indicates a storage-layer failure. It is never retried
// automatically since it is ambiguous whether the write landed.
var ErrPersistence = errors.New("persistence failure")

// AppError carries a status code alongside a message and an optional cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError wrapping the given cause.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
