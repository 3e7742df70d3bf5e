package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for the business-rule failures the stores report. Handlers
// map them onto HTTP status codes; anything else is surfaced as a store
// failure for the caller to retry.
var (
	// ErrValidation marks missing or malformed required input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound marks a referenced id that does not resolve to a row.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a uniqueness violation, e.g. a duplicate mention.
	ErrConflict = errors.New("already exists")

	// ErrInsufficientCredits marks a debit that would take a partner's
	// remaining balance below zero. No mutation is applied.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrInvalidTransition marks a content queue status change outside the
	// allowed lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// PartialDebitError reports a debit that was applied to the partner's balance
// while the matching usage-log append failed. The balance and the audit trail
// are out of sync until an operator reconciles them, so this must never be
// collapsed into a plain success or a plain failure.
type PartialDebitError struct {
	PartnerID int64
	Amount    int64
	Err       error
}

func (e *PartialDebitError) Error() string {
	return fmt.Sprintf(
		"debit of %d credits applied to partner %d but usage log append failed: %v",
		e.Amount, e.PartnerID, e.Err,
	)
}

func (e *PartialDebitError) Unwrap() error {
	return e.Err
}
