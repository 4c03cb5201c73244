// Package split divides committed orders into independent sub-bills.
package split

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"restaurant-pos/internal/domain"
)

const (
	MinParts = 2
	MaxParts = 10
)

// Policy decides how an item assigned to several buckets is charged.
type Policy string

const (
	// ShareFractional divides a shared item's value equally among its buckets.
	ShareFractional Policy = "fractional"
	// ShareDuplicate charges the full value in every bucket; bucket totals can then
	// exceed the source total.
	ShareDuplicate Policy = "duplicate"
)

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case ShareFractional, ShareDuplicate:
		return p, nil
	case "":
		return ShareFractional, nil
	}
	return "", fmt.Errorf("%w: unknown share policy %q", domain.ErrValidation, s)
}

// Source is the splitting workspace: pooled items plus the combined money breakdown.
type Source struct {
	OrderIDs []string
	Items    []domain.OrderItem
	Pricing  domain.PricingBreakdown
}

func FromOrder(o domain.Order) Source {
	return Merge(o)
}

// Merge pools items of several orders, tagging each with the order it came from.
// Item ids colliding across orders are prefixed with the order id.
func Merge(orders ...domain.Order) Source {
	var src Source
	seen := map[string]bool{}
	for _, o := range orders {
		src.OrderIDs = append(src.OrderIDs, o.ID)
		src.Pricing = src.Pricing.Add(o.Pricing)
		for _, it := range o.Items {
			it.SourceOrderID = o.ID
			if seen[it.ID] {
				it.ID = o.ID + ":" + it.ID
			}
			seen[it.ID] = true
			src.Items = append(src.Items, it)
		}
	}
	return src
}

func checkParts(n int) error {
	if n < MinParts || n > MaxParts {
		return fmt.Errorf("%w: %d not in [%d,%d]", domain.ErrInvalidSplitCount, n, MinParts, MaxParts)
	}
	return nil
}

// Equal splits money uniformly into n parts. Items are chunked contiguously for
// display only; a part's amounts never depend on the items it shows.
func Equal(src Source, n int) ([]domain.SplitBill, error) {
	if err := checkParts(n); err != nil {
		return nil, err
	}
	parts := decimal.NewFromInt(int64(n))
	chunk := (len(src.Items) + n - 1) / n

	bills := make([]domain.SplitBill, n)
	for i := range bills {
		start := min(i*chunk, len(src.Items))
		end := min(start+chunk, len(src.Items))
		bills[i] = domain.SplitBill{
			ID:             uuid.NewString(),
			Index:          i,
			Items:          slices.Clone(src.Items[start:end]),
			Subtotal:       src.Pricing.Subtotal.Div(parts),
			DiscountAmount: src.Pricing.DiscountAmount.Div(parts),
			ServiceCharge:  src.Pricing.ServiceCharge.Div(parts),
			TaxAmount:      src.Pricing.TaxAmount.Div(parts),
			Total:          src.Pricing.Total.Div(parts),
		}
	}
	return bills, nil
}

// Assignment maps an item id to the bucket indices it belongs to.
type Assignment map[string][]int

// Custom builds one bill per bucket from explicit item assignment. Tax, discount and
// service charge follow each bucket's share of the source subtotal.
func Custom(src Source, buckets int, assign Assignment, policy Policy) ([]domain.SplitBill, error) {
	if err := checkParts(buckets); err != nil {
		return nil, err
	}
	if policy != ShareFractional && policy != ShareDuplicate {
		return nil, fmt.Errorf("%w: unknown share policy %q", domain.ErrValidation, policy)
	}

	members := make(map[string][]int, len(src.Items))
	var unassigned []string
	for _, it := range src.Items {
		var idx []int
		for _, b := range assign[it.ID] {
			if b < 0 || b >= buckets {
				return nil, fmt.Errorf("%w: item %s assigned to bucket %d of %d", domain.ErrValidation, it.ID, b, buckets)
			}
			if !slices.Contains(idx, b) {
				idx = append(idx, b)
			}
		}
		if len(idx) == 0 {
			unassigned = append(unassigned, it.Name)
			continue
		}
		members[it.ID] = idx
	}
	if len(unassigned) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnassignedItems, strings.Join(unassigned, ", "))
	}

	bills := make([]domain.SplitBill, buckets)
	for i := range bills {
		bills[i] = domain.SplitBill{ID: uuid.NewString(), Index: i, Subtotal: decimal.Zero}
	}
	for _, it := range src.Items {
		idx := members[it.ID]
		share := it.LineTotal()
		if policy == ShareFractional {
			share = share.Div(decimal.NewFromInt(int64(len(idx))))
		}
		for _, b := range idx {
			bills[b].Items = append(bills[b].Items, it)
			bills[b].Subtotal = bills[b].Subtotal.Add(share)
		}
	}

	base := src.Pricing.Subtotal
	for i := range bills {
		b := &bills[i]
		if base.IsZero() {
			b.TaxAmount, b.DiscountAmount, b.ServiceCharge = decimal.Zero, decimal.Zero, decimal.Zero
		} else {
			b.TaxAmount = src.Pricing.TaxAmount.Mul(b.Subtotal).Div(base)
			b.DiscountAmount = src.Pricing.DiscountAmount.Mul(b.Subtotal).Div(base)
			b.ServiceCharge = src.Pricing.ServiceCharge.Mul(b.Subtotal).Div(base)
		}
		b.Total = b.Subtotal.Add(b.TaxAmount).Sub(b.DiscountAmount).Add(b.ServiceCharge)
	}
	return bills, nil
}

// Totals sums the bills, for checking them against the source.
func Totals(bills []domain.SplitBill) domain.PricingBreakdown {
	var p domain.PricingBreakdown
	for _, b := range bills {
		p = p.Add(domain.PricingBreakdown{
			Subtotal:       b.Subtotal,
			DiscountAmount: b.DiscountAmount,
			ServiceCharge:  b.ServiceCharge,
			TaxAmount:      b.TaxAmount,
			Total:          b.Total,
		})
	}
	return p
}
