package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/domain"
)

var errMalformed = errors.New("malformed notification")

type Consumer interface {
	Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, func(), error)
}

type NotificatorService struct {
	consumer Consumer
	log      *logger.Logger
	tracer   trace.Tracer
}

func NewNotificatorService(consumer Consumer, log *logger.Logger) *NotificatorService {
	if log == nil {
		log = logger.Nop()
	}
	return &NotificatorService{consumer: consumer, log: log, tracer: otel.Tracer("notification-subscriber")}
}

// Notify logs every status change from the fanout queue until ctx is cancelled.
func (ns *NotificatorService) Notify(ctx context.Context) error {
	msgs, stop, err := ns.consumer.Consume(rabbitmq.NotificationsQueue, "notificator", 10)
	if err != nil {
		return err
	}
	defer stop()
	ns.log.Info("consuming", map[string]any{"queue": rabbitmq.NotificationsQueue})

	for {
		select {
		case <-ctx.Done():
			ns.log.Info("graceful_shutdown", nil)
			return nil
		case d, ok := <-msgs:
			if !ok {
				ns.log.Info("delivery_channel_closed", nil)
				return nil
			}
			if err := ns.handle(ctx, d); err != nil {
				ns.log.Error("notification_rejected", err, map[string]any{"correlation_id": d.CorrelationId})
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (ns *NotificatorService) handle(ctx context.Context, d amqp.Delivery) error {
	var msg domain.StatusMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	if msg.OrderNumber == "" || msg.NewStatus == "" {
		return fmt.Errorf("%w: missing order number or status", errMalformed)
	}

	_, span := ns.tracer.Start(rabbitmq.ExtractTrace(ctx, d.Headers), "notification.Receive",
		trace.WithAttributes(attribute.String("order.number", msg.OrderNumber)))
	defer span.End()

	ns.log.Info("status_notification", map[string]any{
		"order_number": msg.OrderNumber,
		"old_status":   msg.OldStatus,
		"new_status":   msg.NewStatus,
		"changed_by":   msg.ChangedBy,
		"override":     msg.Override,
		"timestamp":    msg.Timestamp,
	})
	return nil
}
