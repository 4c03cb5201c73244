package dto

import (
	"github.com/shopspring/decimal"

	"restaurant-pos/internal/billing/payment"
	"restaurant-pos/internal/domain"
)

type LineInput struct {
	CatalogItemID string `json:"catalog_item_id"`
	Quantity      int    `json:"quantity"`
	Variation     string `json:"variation,omitempty"`
	Note          string `json:"note,omitempty"`
}

type DiscountInput struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// DraftRequest describes a cart to be priced against the branch catalog.
type DraftRequest struct {
	BranchID      string         `json:"branch_id"`
	Items         []LineInput    `json:"items"`
	Discount      *DiscountInput `json:"discount,omitempty"`
	ServiceCharge bool           `json:"service_charge"`
}

type QuoteRequest struct {
	DraftRequest
	Payments []domain.SubPayment `json:"payments,omitempty"`
}

type QuoteResponse struct {
	Items     []domain.OrderItem      `json:"items"`
	Pricing   domain.PricingBreakdown `json:"pricing"`
	Display   domain.Receipt          `json:"display"`
	Remaining *decimal.Decimal        `json:"remaining,omitempty"`
}

type FulfillmentInput struct {
	OrderType       string          `json:"order_type"`
	Customer        domain.Customer `json:"customer"`
	TableRef        string          `json:"table_ref,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
}

type PlaceOrderRequest struct {
	DraftRequest
	FulfillmentInput
}

type CheckoutRequest struct {
	DraftRequest
	FulfillmentInput
	Payment payment.Request `json:"payment"`
}

type CheckoutResponse struct {
	Order   domain.Order         `json:"order"`
	Payment domain.PaymentRecord `json:"payment"`
	Receipt domain.Receipt       `json:"receipt"`
	Replay  bool                 `json:"replay,omitempty"`
}

type TransitionRequest struct {
	Status          string       `json:"status"`
	Actor           domain.Actor `json:"actor"`
	ExpectedVersion int64        `json:"expected_version"`
	Notes           string       `json:"notes,omitempty"`
}

type SplitRequest struct {
	OrderIDs   []string         `json:"order_ids"`
	Mode       string           `json:"mode"` // equal | custom
	Parts      int              `json:"parts"`
	Assignment map[string][]int `json:"assignment,omitempty"`
	Policy     string           `json:"policy,omitempty"`
}

type SplitResponse struct {
	OrderIDs []string                `json:"order_ids"`
	Source   domain.PricingBreakdown `json:"source"`
	Policy   string                  `json:"policy,omitempty"`
	Bills    []domain.SplitBill      `json:"bills"`
}
