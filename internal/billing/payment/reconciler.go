// Package payment validates a proposed payment against an order total. It never
// persists anything; a confirmed attempt yields the PaymentRecord the caller commits.
package payment

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"restaurant-pos/internal/domain"
)

type Request struct {
	Method    domain.PaymentMethod `json:"method"`
	Tendered  decimal.Decimal      `json:"tendered"`
	Provider  string               `json:"provider,omitempty"`
	Reference string               `json:"reference,omitempty"`
	Splits    []domain.SubPayment  `json:"splits,omitempty"`
}

// Remaining is the signed amount still owed by the sub-payments; negative means overpaid.
func Remaining(total decimal.Decimal, splits []domain.SubPayment) decimal.Decimal {
	paid := decimal.Zero
	for _, s := range splits {
		paid = paid.Add(s.Amount)
	}
	return total.Sub(paid)
}

// Reconcile checks req against total and returns the record to store with the order.
func Reconcile(total decimal.Decimal, req Request) (domain.PaymentRecord, error) {
	switch req.Method {
	case domain.PaymentCash:
		if req.Tendered.LessThan(total) {
			return domain.PaymentRecord{}, fmt.Errorf("%w: tendered %s is below total %s",
				domain.ErrInsufficientPayment, req.Tendered, total)
		}
		return domain.PaymentRecord{
			Method:   domain.PaymentCash,
			Amount:   total,
			Tendered: req.Tendered,
			Change:   req.Tendered.Sub(total),
		}, nil

	case domain.PaymentCard, domain.PaymentMobile:
		if err := requireDetails(req.Method, req.Provider, req.Reference); err != nil {
			return domain.PaymentRecord{}, err
		}
		return domain.PaymentRecord{
			Method:    req.Method,
			Amount:    total,
			Tendered:  total,
			Change:    decimal.Zero,
			Provider:  strings.TrimSpace(req.Provider),
			Reference: strings.TrimSpace(req.Reference),
		}, nil

	case domain.PaymentSplit:
		if len(req.Splits) == 0 {
			return domain.PaymentRecord{}, fmt.Errorf("%w: split payment needs at least one part", domain.ErrValidation)
		}
		for i, s := range req.Splits {
			switch s.Method {
			case domain.PaymentCash, domain.PaymentCard, domain.PaymentMobile:
			default:
				return domain.PaymentRecord{}, fmt.Errorf("%w: split part %d has method %q", domain.ErrValidation, i, s.Method)
			}
			if s.Amount.IsNegative() {
				return domain.PaymentRecord{}, fmt.Errorf("%w: split part %d is negative", domain.ErrValidation, i)
			}
		}
		remaining := Remaining(total, req.Splits)
		if remaining.Abs().GreaterThan(domain.Tolerance) {
			return domain.PaymentRecord{}, &domain.SplitMismatchError{Remaining: remaining}
		}
		splits := make([]domain.SubPayment, len(req.Splits))
		copy(splits, req.Splits)
		return domain.PaymentRecord{
			Method:    domain.PaymentSplit,
			Amount:    total,
			Tendered:  total.Sub(remaining),
			Change:    decimal.Zero,
			Reference: strings.TrimSpace(req.Reference),
			Splits:    splits,
		}, nil
	}
	return domain.PaymentRecord{}, fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, req.Method)
}

func requireDetails(method domain.PaymentMethod, provider, reference string) error {
	if strings.TrimSpace(provider) == "" {
		return fmt.Errorf("%w: %s payment needs a terminal or provider", domain.ErrMissingPaymentDetail, method)
	}
	if method == domain.PaymentMobile && strings.TrimSpace(reference) == "" {
		return fmt.Errorf("%w: mobile payment needs a reference", domain.ErrMissingPaymentDetail)
	}
	return nil
}
