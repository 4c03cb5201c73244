package models

import (
	"time"

	"restaurant-pos/internal/domain"
)

// Step is one stage of the four-step customer progress indicator.
type Step struct {
	Label   string `json:"label"`
	Done    bool   `json:"done"`
	Current bool   `json:"current"`
}

// Progress is what a customer sees for an order. Cancelled orders carry no steps.
type Progress struct {
	OrderNumber string        `json:"order_number"`
	Status      domain.Status `json:"status"`
	Label       string        `json:"label"`
	Steps       []Step        `json:"steps,omitempty"`
	Cancelled   bool          `json:"cancelled,omitempty"`

	ElapsedMinutes   int    `json:"elapsed_minutes"`
	RemainingMinutes *int   `json:"remaining_minutes,omitempty"`
	RemainingLabel   string `json:"remaining_label,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

type TimelineEntry struct {
	Status    domain.Status `json:"status"`
	Label     string        `json:"label"`
	ChangedBy string        `json:"changed_by"`
	At        time.Time     `json:"at"`
	Notes     string        `json:"notes,omitempty"`
}
