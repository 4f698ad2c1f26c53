package core

import (
	"errors"
	"fmt"
)

// Error classes surfaced to callers. Every error leaving the storage and
// service layers wraps exactly one of these.
var (
	ErrStorage          = errors.New("storage error")
	ErrConstraint       = errors.New("constraint violation")
	ErrNotFound         = errors.New("not found")
	ErrNoPendingBalance = errors.New("no pending balance")
	ErrValidation       = errors.New("validation error")
	ErrConfirmation     = errors.New("confirmation rejected")
)

// Field-level validation failures.
var (
	ErrInvalidAmount        = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrNegativeAmount       = fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	ErrMissingDate          = fmt.Errorf("%w: date is required", ErrValidation)
	ErrInvalidDate          = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidMethod        = fmt.Errorf("%w: payment method must be Offline or Online", ErrValidation)
	ErrMissingReference     = fmt.Errorf("%w: transaction reference is required for online payments", ErrValidation)
	ErrEmptyDonorName       = fmt.Errorf("%w: donor name is required", ErrValidation)
	ErrEmptyCategory        = fmt.Errorf("%w: category is required", ErrValidation)
	ErrEmptyTitle           = fmt.Errorf("%w: title is required", ErrValidation)
	ErrInvalidID            = fmt.Errorf("%w: invalid id", ErrValidation)
	ErrTextTooLong          = fmt.Errorf("%w: text too long", ErrValidation)
	ErrNegativePending      = fmt.Errorf("%w: pending amount cannot be negative", ErrValidation)
	ErrMissingConfirmation  = fmt.Errorf("%w: confirmation token is required", ErrConfirmation)
	ErrConfirmationDisabled = fmt.Errorf("%w: destructive operations are disabled", ErrConfirmation)
)

// Kind returns a short machine-readable name for the error class of err,
// or "internal" when err does not wrap a known class.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoPendingBalance):
		return "no_pending_balance"
	case errors.Is(err, ErrConstraint):
		return "constraint"
	case errors.Is(err, ErrConfirmation):
		return "confirmation"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "internal"
	}
}
