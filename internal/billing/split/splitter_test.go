package split

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-pos/internal/billing/pricing"
	"restaurant-pos/internal/domain"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func item(id, name string, price int64, qty int) domain.OrderItem {
	return domain.OrderItem{ID: id, Name: name, UnitPrice: dec(price), Quantity: qty}
}

func order(id string, discount int64, items ...domain.OrderItem) domain.Order {
	return domain.Order{
		ID:      id,
		Items:   items,
		Pricing: pricing.Compute(items, dec(discount), decimal.Zero, decimal.RequireFromString("0.075")),
	}
}

func TestEqualSplitsMoneyUniformly(t *testing.T) {
	src := Source{
		Items: []domain.OrderItem{
			item("a", "Alloco", 1000, 1), item("b", "Garba", 1000, 1), item("c", "Attieke", 1000, 1),
			item("d", "Foutou", 1000, 1), item("e", "Placali", 1000, 1),
		},
		Pricing: domain.PricingBreakdown{Subtotal: dec(9000), TaxAmount: dec(0), DiscountAmount: dec(0), ServiceCharge: dec(0), Total: dec(9000)},
	}

	bills, err := Equal(src, 3)
	require.NoError(t, err)
	require.Len(t, bills, 3)
	for i, b := range bills {
		assert.Equal(t, i, b.Index)
		assert.True(t, b.Total.Equal(dec(3000)), "bill %d total %s", i, b.Total)
		assert.NotEmpty(t, b.ID)
	}
	assert.Len(t, bills[0].Items, 2)
	assert.Len(t, bills[1].Items, 2)
	assert.Len(t, bills[2].Items, 1)
	assert.True(t, domain.WithinTolerance(Totals(bills).Total, src.Pricing.Total))
}

func TestEqualAmountsIgnoreItemChunks(t *testing.T) {
	src := FromOrder(order("o1", 0, item("a", "Alloco", 500, 1), item("b", "Poulet", 9500, 1)))

	bills, err := Equal(src, 4)
	require.NoError(t, err)
	assert.Len(t, bills[0].Items, 1)
	assert.Len(t, bills[1].Items, 1)
	assert.Empty(t, bills[2].Items)
	assert.Empty(t, bills[3].Items)
	for _, b := range bills {
		assert.True(t, b.Total.Equal(bills[0].Total))
	}
	assert.True(t, domain.WithinTolerance(Totals(bills).Total, src.Pricing.Total))
}

func TestEqualUnevenTotalStaysWithinTolerance(t *testing.T) {
	src := FromOrder(order("o1", 0, item("a", "Alloco", 10000, 1)))

	bills, err := Equal(src, 3)
	require.NoError(t, err)
	assert.True(t, domain.WithinTolerance(Totals(bills).Total, src.Pricing.Total))
}

func TestPartCountBounds(t *testing.T) {
	src := FromOrder(order("o1", 0, item("a", "Alloco", 1000, 1)))
	for _, n := range []int{-1, 0, 1, 11} {
		_, err := Equal(src, n)
		assert.ErrorIs(t, err, domain.ErrInvalidSplitCount, "n=%d", n)
		_, err = Custom(src, n, Assignment{"a": {0}}, ShareFractional)
		assert.ErrorIs(t, err, domain.ErrInvalidSplitCount, "n=%d", n)
	}
	_, err := Equal(src, 10)
	assert.NoError(t, err)
}

func threeItems() Source {
	return FromOrder(order("o1", 600,
		item("a", "Alloco", 1000, 1),
		item("b", "Garba", 2000, 1),
		item("c", "Poulet", 3000, 1),
	))
}

func TestCustomProportionalTaxAndDiscount(t *testing.T) {
	src := threeItems()
	require.True(t, src.Pricing.Total.Equal(dec(5805)), "tax applies after discount")

	bills, err := Custom(src, 2, Assignment{"a": {0}, "b": {1}, "c": {1}}, ShareFractional)
	require.NoError(t, err)

	assert.True(t, bills[0].Subtotal.Equal(dec(1000)))
	assert.True(t, bills[0].TaxAmount.Equal(decimal.RequireFromString("67.5")))
	assert.True(t, bills[0].DiscountAmount.Equal(dec(100)))
	assert.True(t, bills[0].Total.Equal(decimal.RequireFromString("967.5")))

	assert.True(t, bills[1].Subtotal.Equal(dec(5000)))
	assert.True(t, bills[1].Total.Equal(decimal.RequireFromString("4837.5")))

	assert.True(t, domain.WithinTolerance(Totals(bills).Total, src.Pricing.Total))
}

func TestCustomSharedItemPolicies(t *testing.T) {
	src := threeItems()
	assign := Assignment{"a": {0}, "b": {1}, "c": {0, 1}}

	frac, err := Custom(src, 2, assign, ShareFractional)
	require.NoError(t, err)
	assert.True(t, frac[0].Subtotal.Equal(dec(2500)))
	assert.True(t, frac[1].Subtotal.Equal(dec(3500)))
	assert.Len(t, frac[0].Items, 2)
	assert.True(t, domain.WithinTolerance(Totals(frac).Total, src.Pricing.Total))

	dup, err := Custom(src, 2, assign, ShareDuplicate)
	require.NoError(t, err)
	assert.True(t, dup[0].Subtotal.Equal(dec(4000)))
	assert.True(t, dup[1].Subtotal.Equal(dec(5000)))
	assert.True(t, Totals(dup).Total.GreaterThan(src.Pricing.Total))
}

func TestCustomRejectsUnassignedAndBadBuckets(t *testing.T) {
	src := threeItems()

	_, err := Custom(src, 2, Assignment{"a": {0}, "b": {1}}, ShareFractional)
	require.ErrorIs(t, err, domain.ErrUnassignedItems)
	assert.Contains(t, err.Error(), "Poulet")

	_, err = Custom(src, 2, Assignment{"a": {0}, "b": {1}, "c": {}}, ShareFractional)
	assert.ErrorIs(t, err, domain.ErrUnassignedItems)

	_, err = Custom(src, 2, Assignment{"a": {0}, "b": {1}, "c": {2}}, ShareFractional)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = Custom(src, 2, Assignment{"a": {0}, "b": {1}, "c": {1}}, Policy("bogus"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCustomDuplicateBucketIndexCountsOnce(t *testing.T) {
	src := threeItems()
	bills, err := Custom(src, 2, Assignment{"a": {0, 0}, "b": {1}, "c": {1}}, ShareFractional)
	require.NoError(t, err)
	assert.True(t, bills[0].Subtotal.Equal(dec(1000)))
	assert.Len(t, bills[0].Items, 1)
}

func TestMergeTagsItemsAndSumsPricing(t *testing.T) {
	o1 := order("o1", 0, item("a", "Alloco", 1000, 2))
	o2 := order("o2", 100, item("a", "Garba", 1500, 1), item("b", "Poulet", 3000, 1))

	src := Merge(o1, o2)

	assert.Equal(t, []string{"o1", "o2"}, src.OrderIDs)
	require.Len(t, src.Items, 3)
	assert.Equal(t, "o1", src.Items[0].SourceOrderID)
	assert.Equal(t, "o2", src.Items[1].SourceOrderID)
	assert.Equal(t, "o2:a", src.Items[1].ID, "colliding ids are prefixed")
	assert.True(t, src.Pricing.Subtotal.Equal(dec(6500)))
	assert.True(t, src.Pricing.Total.Equal(o1.Pricing.Total.Add(o2.Pricing.Total)))
	assert.Empty(t, o2.Items[0].SourceOrderID, "source orders are not mutated")
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ShareFractional, p)

	p, err = ParsePolicy("Duplicate")
	require.NoError(t, err)
	assert.Equal(t, ShareDuplicate, p)

	_, err = ParsePolicy("half")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
