package notificator

import (
	"context"

	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/microservices/notificator/service"
)

func Start(ctx context.Context, rmqClient *rabbitmq.Client, log *logger.Logger) error {
	return service.New(rmqClient, log).NotificatorService.Notify(ctx)
}
