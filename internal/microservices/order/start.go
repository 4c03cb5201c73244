package order

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"restaurant-pos/internal/common/config"
	"restaurant-pos/internal/common/httpx"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/microservices/order/handlers"
	"restaurant-pos/internal/microservices/order/repository"
	"restaurant-pos/internal/microservices/order/service"
)

// Run serves the POS API until ctx is cancelled.
func Run(ctx context.Context, port int, cfg config.App, pool *pgxpool.Pool, rdb *redis.Client, rmqClient *rabbitmq.Client, log *logger.Logger) error {
	if err := repository.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	opts, err := service.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	repo := repository.New(pool, rdb, cfg.Redis.IdempotencyTTL)
	svc := service.New(repo, rmqClient, log, opts)
	handler := handlers.New(svc, log)

	addr := fmt.Sprintf(":%d", port)
	log.Info("service_started", map[string]any{"addr": addr})
	return httpx.New(addr, handler.Routes(), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout).Run(ctx)
}
