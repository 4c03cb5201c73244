package service

import (
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/microservices/kitchen/repository"
	orderservice "restaurant-pos/internal/microservices/order/service"
)

type Service struct {
	KitchenService KitchenServiceInterface
}

func New(orders orderservice.OrderServiceInterface, repo *repository.Repository, consumer Consumer, log *logger.Logger, opts Options) *Service {
	return &Service{
		KitchenService: NewKitchenService(orders, repo.KitchenRepo, consumer, log, opts),
	}
}
