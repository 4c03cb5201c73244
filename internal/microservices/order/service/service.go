package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-pos/internal/billing/split"
	"restaurant-pos/internal/common/config"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/microservices/order/repository"
)

// Publisher is the slice of the broker client the order service needs.
type Publisher interface {
	Publish(ctx context.Context, exchange, key string, m rabbitmq.Message) error
}

// Options are the billing and routing constants, fixed for the life of the process.
type Options struct {
	TaxRate        decimal.Decimal
	ServiceRate    decimal.Decimal
	SharePolicy    split.Policy
	HighPriority   decimal.Decimal
	MediumPriority decimal.Decimal
	Now            func() time.Time
}

func OptionsFromConfig(cfg config.App) (Options, error) {
	policy, err := split.ParsePolicy(cfg.Billing.SharePolicy)
	if err != nil {
		return Options{}, fmt.Errorf("billing.share_policy: %w", err)
	}
	return Options{
		TaxRate:        decimal.NewFromFloat(cfg.Billing.TaxRate),
		ServiceRate:    decimal.NewFromFloat(cfg.Billing.ServiceChargeRate),
		SharePolicy:    policy,
		HighPriority:   decimal.NewFromInt(cfg.Kitchen.HighPriorityTotal),
		MediumPriority: decimal.NewFromInt(cfg.Kitchen.MediumPriorityTotal),
		Now:            time.Now,
	}, nil
}

type Service struct {
	OrderService OrderServiceInterface
}

func New(repo *repository.Repository, pub Publisher, log *logger.Logger, opts Options) *Service {
	return &Service{
		OrderService: NewOrderService(repo, pub, log, opts),
	}
}
