package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFulfillmentValidate(t *testing.T) {
	base := Fulfillment{Customer: Customer{Name: "Awa"}, BranchID: "plateau"}

	cases := []struct {
		name    string
		mutate  func(f *Fulfillment)
		wantErr bool
	}{
		{"takeaway needs only a name", func(f *Fulfillment) { f.Type = OrderTypeTakeaway }, false},
		{"missing name", func(f *Fulfillment) { f.Type = OrderTypeTakeaway; f.Customer.Name = "  " }, true},
		{"dine-in without table", func(f *Fulfillment) { f.Type = OrderTypeDineIn }, true},
		{"dine-in with table", func(f *Fulfillment) { f.Type = OrderTypeDineIn; f.TableRef = "T4" }, false},
		{"delivery without address", func(f *Fulfillment) { f.Type = OrderTypeDelivery }, true},
		{"unknown type", func(f *Fulfillment) { f.Type = "drive-thru" }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := base
			tc.mutate(&f)
			err := f.Validate()
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "split_mismatch", KindOf(&SplitMismatchError{Remaining: decimal.NewFromInt(-1)}))
	assert.Equal(t, "illegal_transition", KindOf(fmt.Errorf("wrap: %w", ErrIllegalTransition)))
	assert.Equal(t, "", KindOf(errors.New("socket closed")))
}

func TestSplitMismatchErrorMessage(t *testing.T) {
	err := &SplitMismatchError{Remaining: decimal.NewFromInt(-1)}
	assert.Contains(t, err.Error(), "overpaid by 1")

	var sm *SplitMismatchError
	require.ErrorAs(t, fmt.Errorf("checkout: %w", err), &sm)
	assert.True(t, sm.Remaining.Equal(decimal.NewFromInt(-1)))
}

func TestWithinTolerance(t *testing.T) {
	assert.True(t, WithinTolerance(decimal.RequireFromString("100.00"), decimal.RequireFromString("100.01")))
	assert.False(t, WithinTolerance(decimal.RequireFromString("100.00"), decimal.RequireFromString("100.02")))
}

func TestNewReceipt(t *testing.T) {
	o := Order{
		Number:   "ORD_20261015_007",
		Type:     OrderTypeDineIn,
		Customer: Customer{Name: "Koffi"},
		TableRef: "T2",
		Items: []OrderItem{
			{Name: "Attiéké poisson", UnitPrice: decimal.NewFromInt(1000), Quantity: 2, Variation: "large"},
		},
		Pricing: PricingBreakdown{
			Subtotal:  decimal.NewFromInt(2000),
			TaxAmount: decimal.RequireFromString("149.6"),
			Total:     decimal.RequireFromString("2149.6"),
		},
		CreatedAt: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
	p := &PaymentRecord{Method: PaymentCash, Tendered: decimal.NewFromInt(5000), Change: decimal.RequireFromString("2850.4")}

	r := NewReceipt(o, p)
	require.Len(t, r.Lines, 1)
	assert.Equal(t, "Attiéké poisson (large)", r.Lines[0].Label)
	assert.Equal(t, "2150", digits(r.Total))
	assert.Equal(t, "150", digits(r.Tax))
	assert.Equal(t, "2850", digits(r.Change))
	assert.True(t, strings.HasSuffix(r.Total, " FCFA"))
}

func digits(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}
