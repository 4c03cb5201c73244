package repository

import (
	"context"
	"fmt"

	"restaurant-pos/internal/domain"
	orderrepo "restaurant-pos/internal/microservices/order/repository"
)

type TrackerRepoInterface interface {
	OrderByNumber(ctx context.Context, number string) (domain.Order, error)
	StatusLog(ctx context.Context, orderID string) ([]domain.StatusLogEntry, error)
}

// TrackerRepo is a read-only view over the order store keyed by the customer-facing number.
type TrackerRepo struct {
	orders orderrepo.OrderStore
}

func NewTrackerRepo(orders orderrepo.OrderStore) *TrackerRepo {
	return &TrackerRepo{orders: orders}
}

func (r *TrackerRepo) OrderByNumber(ctx context.Context, number string) (domain.Order, error) {
	found, err := r.orders.ListOrders(ctx, orderrepo.Filter{Number: number, Limit: 1})
	if err != nil {
		return domain.Order{}, err
	}
	if len(found) == 0 {
		return domain.Order{}, fmt.Errorf("%w: order %s", domain.ErrNotFound, number)
	}
	return found[0], nil
}

func (r *TrackerRepo) StatusLog(ctx context.Context, orderID string) ([]domain.StatusLogEntry, error) {
	return r.orders.StatusLog(ctx, orderID)
}
