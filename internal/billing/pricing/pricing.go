// Package pricing holds the pure money rules: breakdown computation, discounts and the
// service charge toggle. Nothing here rounds; display rounding happens at the edge.
package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"restaurant-pos/internal/domain"
)

var hundred = decimal.NewFromInt(100)

func Subtotal(items []domain.OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Compute derives the breakdown. The caller clamps discountAmount to [0, subtotal].
func Compute(items []domain.OrderItem, discountAmount, serviceCharge, taxRate decimal.Decimal) domain.PricingBreakdown {
	subtotal := Subtotal(items)
	base := subtotal.Sub(discountAmount).Add(serviceCharge)
	tax := base.Mul(taxRate)
	return domain.PricingBreakdown{
		Subtotal:       subtotal,
		DiscountAmount: discountAmount,
		ServiceCharge:  serviceCharge,
		TaxAmount:      tax,
		Total:          base.Add(tax),
	}
}

type DiscountKind string

const (
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
)

// Discount is the request as entered; the amount is re-derived whenever the subtotal moves.
type Discount struct {
	Kind  DiscountKind    `json:"kind"`
	Value decimal.Decimal `json:"value"`
}

// ApplyDiscount returns the discount amount, never above subtotal.
func ApplyDiscount(subtotal decimal.Decimal, kind DiscountKind, value decimal.Decimal) (decimal.Decimal, error) {
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: value %s is negative", domain.ErrInvalidDiscount, value)
	}
	switch kind {
	case DiscountPercentage:
		if value.GreaterThan(hundred) {
			return decimal.Zero, fmt.Errorf("%w: %s%% exceeds the subtotal", domain.ErrInvalidDiscount, value)
		}
		return subtotal.Mul(value).Div(hundred), nil
	case DiscountFixed:
		return decimal.Min(value, subtotal), nil
	}
	return decimal.Zero, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidDiscount, kind)
}

// ParseDiscount validates raw user input into a Discount.
func ParseDiscount(kind, raw string) (Discount, error) {
	k := DiscountKind(strings.ToLower(strings.TrimSpace(kind)))
	if k != DiscountPercentage && k != DiscountFixed {
		return Discount{}, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidDiscount, kind)
	}
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return Discount{}, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidDiscount, raw)
	}
	if v.IsNegative() {
		return Discount{}, fmt.Errorf("%w: value %s is negative", domain.ErrInvalidDiscount, v)
	}
	return Discount{Kind: k, Value: v}, nil
}

func ServiceCharge(subtotal, rate decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(rate)
}

// ToggleServiceCharge switches between off (0) and rate × subtotal. It is a toggle,
// never an accumulator.
func ToggleServiceCharge(current, subtotal, rate decimal.Decimal) decimal.Decimal {
	if current.IsPositive() {
		return decimal.Zero
	}
	return ServiceCharge(subtotal, rate)
}
