// Package dao holds the persisted shape of an order.
package dao

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-pos/internal/domain"
)

// Order mirrors one row of the orders table. Items are stored as a JSONB document.
type Order struct {
	ID               string
	OrderNumber      string
	OrderType        string
	Status           string
	BranchID         string
	CustomerName     string
	CustomerPhone    string
	TableRef         string
	DeliveryAddress  string
	Items            []byte
	Subtotal         decimal.Decimal
	DiscountAmount   decimal.Decimal
	ServiceCharge    decimal.Decimal
	TaxAmount        decimal.Decimal
	TotalAmount      decimal.Decimal
	PaymentMethod    string
	PaymentReference string
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

func FromDomain(o domain.Order) (Order, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return Order{}, fmt.Errorf("encode items: %w", err)
	}
	return Order{
		ID:               o.ID,
		OrderNumber:      o.Number,
		OrderType:        string(o.Type),
		Status:           string(o.Status),
		BranchID:         o.BranchID,
		CustomerName:     o.Customer.Name,
		CustomerPhone:    o.Customer.Phone,
		TableRef:         o.TableRef,
		DeliveryAddress:  o.DeliveryAddress,
		Items:            items,
		Subtotal:         o.Pricing.Subtotal,
		DiscountAmount:   o.Pricing.DiscountAmount,
		ServiceCharge:    o.Pricing.ServiceCharge,
		TaxAmount:        o.Pricing.TaxAmount,
		TotalAmount:      o.Pricing.Total,
		PaymentMethod:    string(o.PaymentMethod),
		PaymentReference: o.PaymentReference,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		CompletedAt:      o.CompletedAt,
	}, nil
}

// ToDomain re-validates the enumerations so a corrupted row never yields an unknown status.
func (r Order) ToDomain() (domain.Order, error) {
	st, err := domain.ParseStatus(r.Status)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", r.ID, err)
	}
	typ, err := domain.ParseOrderType(r.OrderType)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order %s: %w", r.ID, err)
	}
	var items []domain.OrderItem
	if len(r.Items) > 0 {
		if err := json.Unmarshal(r.Items, &items); err != nil {
			return domain.Order{}, fmt.Errorf("order %s: decode items: %w", r.ID, err)
		}
	}
	return domain.Order{
		ID:              r.ID,
		Number:          r.OrderNumber,
		Type:            typ,
		Status:          st,
		Items:           items,
		Customer:        domain.Customer{Name: r.CustomerName, Phone: r.CustomerPhone},
		TableRef:        r.TableRef,
		DeliveryAddress: r.DeliveryAddress,
		Pricing: domain.PricingBreakdown{
			Subtotal:       r.Subtotal,
			DiscountAmount: r.DiscountAmount,
			ServiceCharge:  r.ServiceCharge,
			TaxAmount:      r.TaxAmount,
			Total:          r.TotalAmount,
		},
		BranchID:         r.BranchID,
		PaymentMethod:    domain.PaymentMethod(r.PaymentMethod),
		PaymentReference: r.PaymentReference,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		CompletedAt:      r.CompletedAt,
		Version:          r.Version,
	}, nil
}
