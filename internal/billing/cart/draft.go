package cart

import (
	"github.com/shopspring/decimal"

	"restaurant-pos/internal/billing/pricing"
	"restaurant-pos/internal/domain"
)

// Draft is the in-progress order: cart, discount request and service charge flag.
// It is the only place that mutates them, and Pricing is always recomputed from scratch.
type Draft struct {
	cart        *Cart
	discount    *pricing.Discount
	serviceOn   bool
	taxRate     decimal.Decimal
	serviceRate decimal.Decimal
}

func NewDraft(ids *LineIDs, taxRate, serviceRate decimal.Decimal) *Draft {
	return &Draft{cart: New(ids), taxRate: taxRate, serviceRate: serviceRate}
}

func (d *Draft) Add(item CatalogItem, variation string) string { return d.cart.Add(item, variation) }

func (d *Draft) UpdateQuantity(lineID string, delta int) { d.cart.UpdateQuantity(lineID, delta) }

func (d *Draft) SetNote(lineID, note string) { d.cart.SetNote(lineID, note) }

func (d *Draft) Remove(lineID string) { d.cart.Remove(lineID) }

// Clear empties the cart and drops the discount and service charge.
func (d *Draft) Clear() {
	d.cart.Clear()
	d.discount = nil
	d.serviceOn = false
}

func (d *Draft) Items() []domain.OrderItem { return d.cart.Lines() }

func (d *Draft) Empty() bool { return d.cart.Len() == 0 }

// ApplyDiscount validates against the current subtotal; on error the draft is unchanged.
func (d *Draft) ApplyDiscount(disc pricing.Discount) error {
	if _, err := pricing.ApplyDiscount(pricing.Subtotal(d.cart.lines), disc.Kind, disc.Value); err != nil {
		return err
	}
	d.discount = &disc
	return nil
}

func (d *Draft) ClearDiscount() { d.discount = nil }

// ToggleServiceCharge flips the flat-rate service charge and reports whether it is now on.
func (d *Draft) ToggleServiceCharge() bool {
	d.serviceOn = !d.serviceOn
	return d.serviceOn
}

func (d *Draft) ServiceChargeOn() bool { return d.serviceOn }

func (d *Draft) Pricing() domain.PricingBreakdown {
	subtotal := pricing.Subtotal(d.cart.lines)

	discount := decimal.Zero
	if d.discount != nil {
		// The request was validated when applied; fixed amounts re-clamp to the new subtotal.
		if amt, err := pricing.ApplyDiscount(subtotal, d.discount.Kind, d.discount.Value); err == nil {
			discount = amt
		}
	}
	service := decimal.Zero
	if d.serviceOn {
		service = pricing.ServiceCharge(subtotal, d.serviceRate)
	}
	return pricing.Compute(d.cart.lines, discount, service, d.taxRate)
}
