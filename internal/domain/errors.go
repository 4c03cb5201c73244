package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrValidation signals a missing or malformed required field.
	ErrValidation = errors.New("validation error")
	// ErrInsufficientPayment is returned when cash tendered is below the total.
	ErrInsufficientPayment = errors.New("insufficient payment")
	// ErrMissingPaymentDetail is returned when a card/mobile payment lacks terminal or reference.
	ErrMissingPaymentDetail = errors.New("missing payment detail")
	// ErrSplitMismatch is returned when split sub-payments do not add up to the total.
	ErrSplitMismatch = errors.New("split payment mismatch")
	ErrInvalidDiscount   = errors.New("invalid discount")
	ErrInvalidSplitCount = errors.New("invalid split count")
	ErrUnassignedItems   = errors.New("unassigned items")
	// ErrIllegalTransition is returned for skipped, backward or post-terminal status moves.
	ErrIllegalTransition = errors.New("illegal status transition")

	ErrNotFound = errors.New("not found")
	// ErrConflict indicates the order changed since the caller read it.
	ErrConflict         = errors.New("conflict")
	ErrDuplicateRequest = errors.New("duplicate request")
)

// SplitMismatchError carries the signed amount still owed (negative when overpaid).
type SplitMismatchError struct {
	Remaining decimal.Decimal
}

func (e *SplitMismatchError) Error() string {
	if e.Remaining.IsNegative() {
		return fmt.Sprintf("%s: overpaid by %s", ErrSplitMismatch, e.Remaining.Neg().String())
	}
	return fmt.Sprintf("%s: remaining %s", ErrSplitMismatch, e.Remaining.String())
}

func (e *SplitMismatchError) Unwrap() error { return ErrSplitMismatch }

var kinds = []struct {
	err  error
	code string
}{
	{ErrValidation, "validation_error"},
	{ErrInsufficientPayment, "insufficient_payment"},
	{ErrMissingPaymentDetail, "missing_payment_detail"},
	{ErrSplitMismatch, "split_mismatch"},
	{ErrInvalidDiscount, "invalid_discount"},
	{ErrInvalidSplitCount, "invalid_split_count"},
	{ErrUnassignedItems, "unassigned_items"},
	{ErrIllegalTransition, "illegal_transition"},
	{ErrNotFound, "not_found"},
	{ErrConflict, "conflict"},
	{ErrDuplicateRequest, "duplicate_request"},
}

// KindOf maps an error onto its taxonomy code, or "" for infrastructure errors.
func KindOf(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return ""
}
