package apperrors

import (
	"errors"
	"fmt"
)

// Business rule rejections. These are caused by the request and are reported
// back to the caller as-is.
var (
	ErrUnknownSymbol      = errors.New("invalid symbol")
	ErrUnknownPortfolio   = errors.New("unregistered portfolio")
	ErrUnknownClient      = errors.New("unregistered client")
	ErrInsufficientShares = errors.New("insufficient stocks for selling")
	ErrValidation         = errors.New("validation failed")
	ErrDuplicate          = errors.New("resource already exists")
	ErrLedgerImmutable    = errors.New("trades are immutable once recorded")
)

// ErrStorageFailure marks any unexpected fault coming from the persistence layer.
var ErrStorageFailure = errors.New("storage failure")

// Storage wraps err as a storage failure, keeping the original cause in the chain.
func Storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

// Invalid wraps a validation message so callers can match ErrValidation.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// IsBusiness reports whether err is an expected, client-caused rejection.
func IsBusiness(err error) bool {
	switch {
	case errors.Is(err, ErrUnknownSymbol),
		errors.Is(err, ErrUnknownPortfolio),
		errors.Is(err, ErrUnknownClient),
		errors.Is(err, ErrInsufficientShares),
		errors.Is(err, ErrValidation),
		errors.Is(err, ErrDuplicate),
		errors.Is(err, ErrLedgerImmutable):
		return true
	}
	return false
}
