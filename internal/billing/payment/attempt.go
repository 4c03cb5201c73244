package payment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"restaurant-pos/internal/domain"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateConfirmed  State = "confirmed"
	StateRejected   State = "rejected"
)

// Attempt tracks one payment confirmation. A rejected attempt can be retried with
// corrected input; an abandoned one is simply dropped.
type Attempt struct {
	total  decimal.Decimal
	state  State
	record domain.PaymentRecord
	err    error
}

func NewAttempt(total decimal.Decimal) *Attempt {
	return &Attempt{total: total, state: StateIdle}
}

func (a *Attempt) State() State { return a.state }

func (a *Attempt) Total() decimal.Decimal { return a.total }

// LastError is the reason for the most recent rejection.
func (a *Attempt) LastError() error { return a.err }

func (a *Attempt) Confirm(req Request) (domain.PaymentRecord, error) {
	if a.state == StateConfirmed {
		return domain.PaymentRecord{}, fmt.Errorf("%w: payment already confirmed", domain.ErrValidation)
	}
	a.state = StateValidating
	rec, err := Reconcile(a.total, req)
	if err != nil {
		a.state, a.err = StateRejected, err
		return domain.PaymentRecord{}, err
	}
	a.state, a.record, a.err = StateConfirmed, rec, nil
	return rec, nil
}

func (a *Attempt) Record() (domain.PaymentRecord, bool) {
	return a.record, a.state == StateConfirmed
}
