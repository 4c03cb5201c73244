package kitchen

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"restaurant-pos/internal/common/config"
	"restaurant-pos/internal/common/httpx"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/microservices/kitchen/handlers"
	"restaurant-pos/internal/microservices/kitchen/repository"
	"restaurant-pos/internal/microservices/kitchen/service"
	orderrepo "restaurant-pos/internal/microservices/order/repository"
	orderservice "restaurant-pos/internal/microservices/order/service"
)

// Run consumes new orders and serves the kitchen display until ctx is cancelled.
func Run(ctx context.Context, port int, cfg config.App, pool *pgxpool.Pool, rmqClient *rabbitmq.Client, log *logger.Logger, workerName, orderTypes string) error {
	types, err := service.ParseOrderTypes(orderTypes)
	if err != nil {
		return err
	}
	if err := orderrepo.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	if err := repository.EnsureSchema(ctx, pool); err != nil {
		return err
	}
	opts, err := orderservice.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	orders := orderservice.NewOrderService(&orderrepo.Repository{
		OrderRepo: orderrepo.NewOrderRepository(pool),
	}, rmqClient, log, opts)
	svc := service.New(orders, repository.New(pool), rmqClient, log, service.Options{
		WorkerName:   workerName,
		OrderTypes:   types,
		Prefetch:     cfg.Kitchen.Prefetch,
		UrgentAfter:  cfg.Kitchen.UrgentAfter,
		RequeueDelay: cfg.Kitchen.RequeueDelay,
	})

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.KitchenService.Run(ctx) })
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", port)
		log.Info("service_started", map[string]any{"addr": addr})
		return httpx.New(addr, handlers.New(svc, log).Routes(), cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout).Run(ctx)
	})
	return g.Wait()
}
