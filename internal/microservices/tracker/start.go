package tracker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"restaurant-pos/internal/common/config"
	"restaurant-pos/internal/common/httpx"
	"restaurant-pos/internal/common/logger"
	orderrepo "restaurant-pos/internal/microservices/order/repository"
	"restaurant-pos/internal/microservices/tracker/handler"
	"restaurant-pos/internal/microservices/tracker/repository"
	"restaurant-pos/internal/microservices/tracker/service"
)

// Run serves the customer tracking view until ctx is cancelled.
func Run(ctx context.Context, port int, cfg config.App, pool *pgxpool.Pool, log *logger.Logger) error {
	repo := repository.NewTrackerRepo(orderrepo.NewOrderRepository(pool))
	svc := service.New(repo, cfg.Tracking.Estimate)
	h := handler.NewTrackerHandler(svc, log)

	addr := fmt.Sprintf(":%d", port)
	log.Info("service_started", map[string]any{"addr": addr})
	return httpx.New(addr, h.Routes(), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout).Run(ctx)
}
