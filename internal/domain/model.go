package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeTakeaway OrderType = "takeaway"
	OrderTypeDelivery OrderType = "delivery"
)

func ParseOrderType(s string) (OrderType, error) {
	switch t := OrderType(strings.ToLower(strings.TrimSpace(s))); t {
	case OrderTypeDineIn, OrderTypeTakeaway, OrderTypeDelivery:
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown order type %q", ErrValidation, s)
}

// OrderItem is one priced line. SourceOrderID is only set inside a merged split workspace.
type OrderItem struct {
	ID            string          `json:"id"`
	CatalogItemID string          `json:"catalog_item_id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
	Variation     string          `json:"variation,omitempty"`
	Note          string          `json:"note,omitempty"`
	SourceOrderID string          `json:"source_order_id,omitempty"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// PricingBreakdown is derived from items; Total = Subtotal - Discount + Service + Tax.
type PricingBreakdown struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ServiceCharge  decimal.Decimal `json:"service_charge"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}

func (p PricingBreakdown) Add(o PricingBreakdown) PricingBreakdown {
	return PricingBreakdown{
		Subtotal:       p.Subtotal.Add(o.Subtotal),
		DiscountAmount: p.DiscountAmount.Add(o.DiscountAmount),
		ServiceCharge:  p.ServiceCharge.Add(o.ServiceCharge),
		TaxAmount:      p.TaxAmount.Add(o.TaxAmount),
		Total:          p.Total.Add(o.Total),
	}
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type Order struct {
	ID               string           `json:"id"`
	Number           string           `json:"order_number"`
	Type             OrderType        `json:"order_type"`
	Status           Status           `json:"status"`
	Items            []OrderItem      `json:"items"`
	Customer         Customer         `json:"customer"`
	TableRef         string           `json:"table_ref,omitempty"`
	DeliveryAddress  string           `json:"delivery_address,omitempty"`
	Pricing          PricingBreakdown `json:"pricing"`
	BranchID         string           `json:"branch_id"`
	PaymentMethod    PaymentMethod    `json:"payment_method,omitempty"`
	PaymentReference string           `json:"payment_reference,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	Version          int64            `json:"version"`
}

// Fulfillment is the who/where of an order, validated before commit.
type Fulfillment struct {
	Type            OrderType
	Customer        Customer
	TableRef        string
	DeliveryAddress string
	BranchID        string
}

func (f Fulfillment) Validate() error {
	if strings.TrimSpace(f.Customer.Name) == "" {
		return fmt.Errorf("%w: customer name is required", ErrValidation)
	}
	if strings.TrimSpace(f.BranchID) == "" {
		return fmt.Errorf("%w: branch is required", ErrValidation)
	}
	switch f.Type {
	case OrderTypeDineIn:
		if strings.TrimSpace(f.TableRef) == "" {
			return fmt.Errorf("%w: table is required for dine-in", ErrValidation)
		}
	case OrderTypeDelivery:
		if strings.TrimSpace(f.DeliveryAddress) == "" {
			return fmt.Errorf("%w: delivery address is required", ErrValidation)
		}
	case OrderTypeTakeaway:
	default:
		return fmt.Errorf("%w: unknown order type %q", ErrValidation, f.Type)
	}
	return nil
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentMobile PaymentMethod = "mobile"
	PaymentSplit  PaymentMethod = "split"
)

type SubPayment struct {
	Method PaymentMethod   `json:"method"`
	Amount decimal.Decimal `json:"amount"`
}

type PaymentRecord struct {
	Method    PaymentMethod   `json:"method"`
	Amount    decimal.Decimal `json:"amount"`
	Tendered  decimal.Decimal `json:"tendered"`
	Change    decimal.Decimal `json:"change"`
	Provider  string          `json:"provider,omitempty"`
	Reference string          `json:"reference,omitempty"`
	Splits    []SubPayment    `json:"splits,omitempty"`
}

// SplitBill is a transient sub-bill derived from one or more committed orders.
type SplitBill struct {
	ID             string          `json:"id"`
	Index          int             `json:"index"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	ServiceCharge  decimal.Decimal `json:"service_charge"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	Total          decimal.Decimal `json:"total"`
}
