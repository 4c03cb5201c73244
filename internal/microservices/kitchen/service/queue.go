package service

import (
	"fmt"
	"sort"
	"time"

	"restaurant-pos/internal/domain"
)

// QueueStatuses are the states an order is visible to the kitchen in.
var QueueStatuses = []domain.Status{domain.StatusPending, domain.StatusInKitchen, domain.StatusReady}

type Ticket struct {
	Order          domain.Order    `json:"order"`
	ElapsedSeconds int64           `json:"elapsed_seconds"`
	Elapsed        string          `json:"elapsed"`
	Urgent         bool            `json:"urgent"`
	Next           []domain.Status `json:"next"`
}

// BuildQueue is a read-only projection: kitchen-visible orders, oldest first, flagged
// urgent once their wait exceeds urgentAfter.
func BuildQueue(orders []domain.Order, now time.Time, urgentAfter time.Duration) []Ticket {
	tickets := make([]Ticket, 0, len(orders))
	for _, o := range orders {
		switch o.Status {
		case domain.StatusPending, domain.StatusInKitchen, domain.StatusReady:
		default:
			continue
		}
		wait := max(now.Sub(o.CreatedAt), 0)
		tickets = append(tickets, Ticket{
			Order:          o,
			ElapsedSeconds: int64(wait / time.Second),
			Elapsed:        FormatWait(wait),
			Urgent:         wait > urgentAfter,
			Next:           kitchenNext(o.Status),
		})
	}
	sort.SliceStable(tickets, func(i, j int) bool {
		return tickets[i].Order.CreatedAt.Before(tickets[j].Order.CreatedAt)
	})
	return tickets
}

// kitchenNext lists the moves the kitchen itself may make from s.
func kitchenNext(s domain.Status) []domain.Status {
	kitchen := domain.Actor{Role: domain.RoleKitchen}
	var out []domain.Status
	for _, to := range domain.NextStatuses(s) {
		if domain.TransitionAs(kitchen, s, to) == nil {
			out = append(out, to)
		}
	}
	return out
}

// FormatWait renders a wait as "m:ss", or "h:mm:ss" past an hour.
func FormatWait(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
