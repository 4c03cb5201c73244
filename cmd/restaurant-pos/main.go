package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"restaurant-pos/internal/common/config"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/connections/cache"
	"restaurant-pos/internal/connections/database"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/microservices/kitchen"
	"restaurant-pos/internal/microservices/notificator"
	"restaurant-pos/internal/microservices/order"
	"restaurant-pos/internal/microservices/tracker"
)

const modes = "pos-service | kitchen-worker | tracking-service | notification-subscriber"

func main() {
	mode := flag.String("mode", "", modes)
	cfgPath := flag.String("config", "", "path to YAML config (default: config.yaml)")
	port := flag.Int("port", 0, "http port for services that expose HTTP")
	workerName := flag.String("worker-name", "", "kitchen-worker: unique worker name")
	orderTypes := flag.String("order-types", "", "kitchen-worker: comma-separated order types to handle")
	useTLS := flag.Bool("amqp-tls", false, "connect to RabbitMQ over amqps")
	flag.Parse()

	lg := logger.New(*mode)
	if err := run(*mode, *cfgPath, *port, *workerName, *orderTypes, *useTLS, lg); err != nil {
		lg.Error("fatal", err, nil)
		lg.Sync()
		os.Exit(1)
	}
	lg.Sync()
}

func run(mode, cfgPath string, port int, workerName, orderTypes string, useTLS bool, lg *logger.Logger) error {
	switch mode {
	case "pos-service", "tracking-service", "notification-subscriber":
	case "kitchen-worker":
		if workerName == "" {
			fmt.Fprintln(os.Stderr, "--worker-name is required for kitchen-worker")
			os.Exit(2)
		}
	default:
		fmt.Fprintln(os.Stderr, "--mode is required: "+modes)
		os.Exit(2)
	}

	if cfgPath == "" {
		p, err := config.FindConfig()
		if err != nil {
			return fmt.Errorf("no config file found: pass --config")
		}
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var rmq *rabbitmq.Client
	if mode != "tracking-service" {
		rmq, err = rabbitmq.Dial(cfg.Rabbit, useTLS)
		if err != nil {
			return err
		}
		defer rmq.Close()
		if err := rmq.DeclareTopology(); err != nil {
			return err
		}
		lg.Info("rabbitmq_connected", map[string]any{"host": cfg.Rabbit.Host, "vhost": cfg.Rabbit.VHost})
	}

	if mode == "notification-subscriber" {
		lg.Info("service_started", nil)
		return notificator.Start(ctx, rmq, lg)
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	lg.Info("db_connected", map[string]any{"host": cfg.Database.Host, "database": cfg.Database.Name})

	switch mode {
	case "pos-service":
		if port == 0 {
			port = 3000
		}
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		return order.Run(ctx, port, cfg, pool, rdb, rmq, lg)
	case "kitchen-worker":
		if port == 0 {
			port = 3001
		}
		return kitchen.Run(ctx, port, cfg, pool, rmq, lg.With(map[string]any{"worker": workerName}), workerName, orderTypes)
	default:
		if port == 0 {
			port = 3002
		}
		return tracker.Run(ctx, port, cfg, pool, lg)
	}
}
