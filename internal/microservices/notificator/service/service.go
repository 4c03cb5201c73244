package service

import "restaurant-pos/internal/common/logger"

type Service struct {
	NotificatorService *NotificatorService
}

func New(consumer Consumer, log *logger.Logger) *Service {
	return &Service{NotificatorService: NewNotificatorService(consumer, log)}
}
