package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderMessage is published to the kitchen when an order is committed.
type OrderMessage struct {
	OrderID         string          `json:"order_id"`
	OrderNumber     string          `json:"order_number"`
	CustomerName    string          `json:"customer_name"`
	OrderType       OrderType       `json:"order_type"`
	TableRef        string          `json:"table_ref,omitempty"`
	DeliveryAddress string          `json:"delivery_address,omitempty"`
	BranchID        string          `json:"branch_id"`
	Items           []OrderItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	Priority        int             `json:"priority"`
}

// StatusMessage is fanned out to notification subscribers on every transition.
type StatusMessage struct {
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	OldStatus   Status    `json:"old_status"`
	NewStatus   Status    `json:"new_status"`
	ChangedBy   string    `json:"changed_by"`
	Override    bool      `json:"override,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// StatusLogEntry is one persisted transition.
type StatusLogEntry struct {
	OrderID   string    `json:"order_id"`
	Status    Status    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Notes     string    `json:"notes,omitempty"`
}
