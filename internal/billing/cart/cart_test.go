package cart

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/billing/pricing"
	"restaurant-pos/internal/domain"
)

var (
	alloco = CatalogItem{ID: "menu-1", Name: "Alloco", Price: decimal.NewFromInt(1000), Available: true}
	garba  = CatalogItem{ID: "menu-2", Name: "Garba", Price: decimal.NewFromInt(1500), Available: true}
)

func frozenClock() func() time.Time {
	at := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestAddAggregatesSameItemAndVariation(t *testing.T) {
	c := New(NewLineIDs(nil))

	first := c.Add(alloco, "")
	again := c.Add(alloco, "")
	spicy := c.Add(alloco, "spicy")
	c.Add(garba, "")

	assert.Equal(t, first, again)
	assert.NotEqual(t, first, spicy)

	lines := c.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.Equal(t, "spicy", lines[1].Variation)
	assert.Equal(t, "Garba", lines[2].Name)
}

func TestLineIDsStayDistinctWithinOneMillisecond(t *testing.T) {
	ids := NewLineIDs(frozenClock())
	c := New(ids)

	seen := map[string]bool{}
	prev := ""
	for i := 0; i < 50; i++ {
		id := c.Add(CatalogItem{ID: fmt.Sprintf("menu-%d", i), Price: decimal.NewFromInt(1)}, "")
		assert.False(t, seen[id], "duplicate line id %s", id)
		assert.Greater(t, id, prev)
		seen[id] = true
		prev = id
	}
	assert.Equal(t, 50, c.Len())
}

func TestUpdateQuantityClampsAndRemoves(t *testing.T) {
	c := New(nil)
	id := c.Add(alloco, "")

	c.UpdateQuantity(id, 3)
	assert.Equal(t, 4, c.Lines()[0].Quantity)

	c.UpdateQuantity(id, -10)
	assert.Equal(t, 0, c.Len(), "a line reaching zero is removed")

	c.UpdateQuantity("unknown", 1)
	c.Remove("unknown")
	assert.Equal(t, 0, c.Len())
}

func TestRemoveClearAndNote(t *testing.T) {
	c := New(nil)
	a := c.Add(alloco, "")
	c.Add(garba, "")
	c.SetNote(a, "no onions")

	lines := c.Lines()
	assert.Equal(t, "no onions", lines[0].Note)
	lines[0].Quantity = 99
	assert.Equal(t, 1, c.Lines()[0].Quantity, "Lines returns a copy")

	c.Remove(a)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, "Garba", c.Lines()[0].Name)

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestDraftScenario(t *testing.T) {
	dr := NewDraft(nil, decimal.RequireFromString("0.075"), decimal.RequireFromString("0.10"))
	id := dr.Add(alloco, "")
	dr.UpdateQuantity(id, 1)

	require.NoError(t, dr.ApplyDiscount(pricing.Discount{Kind: pricing.DiscountPercentage, Value: decimal.NewFromInt(10)}))
	assert.True(t, dr.ToggleServiceCharge())

	p := dr.Pricing()
	assert.True(t, p.Subtotal.Equal(decimal.NewFromInt(2000)))
	assert.True(t, p.DiscountAmount.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.ServiceCharge.Equal(decimal.NewFromInt(200)))
	assert.True(t, p.TaxAmount.Equal(decimal.NewFromInt(150)))
	assert.True(t, p.Total.Equal(decimal.NewFromInt(2150)))

	assert.False(t, dr.ToggleServiceCharge())
	assert.True(t, dr.Pricing().ServiceCharge.IsZero(), "second toggle turns the charge off")
}

func TestDraftRejectedDiscountLeavesStateUnchanged(t *testing.T) {
	dr := NewDraft(nil, decimal.Zero, decimal.RequireFromString("0.10"))
	dr.Add(garba, "")
	require.NoError(t, dr.ApplyDiscount(pricing.Discount{Kind: pricing.DiscountFixed, Value: decimal.NewFromInt(500)}))

	err := dr.ApplyDiscount(pricing.Discount{Kind: pricing.DiscountPercentage, Value: decimal.NewFromInt(150)})
	require.ErrorIs(t, err, domain.ErrInvalidDiscount)
	assert.True(t, dr.Pricing().DiscountAmount.Equal(decimal.NewFromInt(500)))
}

func TestDraftFixedDiscountReclampsWhenCartShrinks(t *testing.T) {
	dr := NewDraft(nil, decimal.Zero, decimal.Zero)
	a := dr.Add(alloco, "")
	dr.Add(garba, "")
	require.NoError(t, dr.ApplyDiscount(pricing.Discount{Kind: pricing.DiscountFixed, Value: decimal.NewFromInt(2000)}))
	assert.True(t, dr.Pricing().DiscountAmount.Equal(decimal.NewFromInt(2000)))

	dr.Remove(a)
	p := dr.Pricing()
	assert.True(t, p.DiscountAmount.Equal(decimal.NewFromInt(1500)))
	assert.True(t, p.Total.IsZero())

	dr.Clear()
	assert.True(t, dr.Empty())
	assert.False(t, dr.ServiceChargeOn())
}
