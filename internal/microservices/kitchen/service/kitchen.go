package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/microservices/kitchen/repository"
	orderdto "restaurant-pos/internal/microservices/order/domain/dto"
	orderrepo "restaurant-pos/internal/microservices/order/repository"
	orderservice "restaurant-pos/internal/microservices/order/service"
)

var (
	ErrRequeue = errors.New("requeue")     // nack(requeue=true)
	ErrDLQ     = errors.New("dead_letter") // nack(requeue=false)
)

// Consumer is the slice of the broker client the worker needs.
type Consumer interface {
	Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, func(), error)
}

type KitchenServiceInterface interface {
	Queue(ctx context.Context, branchID string) ([]Ticket, error)
	SetStatus(ctx context.Context, id string, req StatusRequest) (domain.Order, error)
	Workers(ctx context.Context) ([]repository.Worker, error)
	Run(ctx context.Context) error
}

type StatusRequest struct {
	Status          string `json:"status"`
	Cook            string `json:"cook"`
	ExpectedVersion int64  `json:"expected_version"`
}

type Options struct {
	WorkerName  string
	OrderTypes  []domain.OrderType // empty accepts every order type
	Prefetch    int
	BeatEvery   time.Duration
	UrgentAfter time.Duration
	// RequeueDelay holds back a requeued delivery so a worker that cannot take it does
	// not receive it again immediately.
	RequeueDelay time.Duration
	Now          func() time.Time
}

type KitchenService struct {
	orders   orderservice.OrderServiceInterface
	workers  repository.WorkerRegistry
	consumer Consumer
	log      *logger.Logger
	opts     Options
	tracer   trace.Tracer
}

func NewKitchenService(orders orderservice.OrderServiceInterface, workers repository.WorkerRegistry, consumer Consumer, log *logger.Logger, opts Options) *KitchenService {
	if opts.Prefetch <= 0 {
		opts.Prefetch = 1
	}
	if opts.BeatEvery <= 0 {
		opts.BeatEvery = 30 * time.Second
	}
	if opts.UrgentAfter <= 0 {
		opts.UrgentAfter = 15 * time.Minute
	}
	if opts.RequeueDelay <= 0 {
		opts.RequeueDelay = time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &KitchenService{
		orders:   orders,
		workers:  workers,
		consumer: consumer,
		log:      log,
		opts:     opts,
		tracer:   otel.Tracer("kitchen-service"),
	}
}

// ParseOrderTypes splits a comma-separated specialization list.
func ParseOrderTypes(csv string) ([]domain.OrderType, error) {
	var out []domain.OrderType
	for _, part := range strings.Split(csv, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		t, err := domain.ParseOrderType(part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (ks *KitchenService) Queue(ctx context.Context, branchID string) ([]Ticket, error) {
	orders, err := ks.orders.ListOrders(ctx, orderrepo.Filter{Statuses: QueueStatuses, BranchID: branchID})
	if err != nil {
		return nil, err
	}
	return BuildQueue(orders, ks.opts.Now(), ks.opts.UrgentAfter), nil
}

// SetStatus is the kitchen display's transition; it is limited to what the kitchen role may set.
func (ks *KitchenService) SetStatus(ctx context.Context, id string, req StatusRequest) (domain.Order, error) {
	cook := strings.TrimSpace(req.Cook)
	if cook == "" {
		cook = ks.opts.WorkerName
	}
	return ks.orders.TransitionStatus(ctx, id, orderdto.TransitionRequest{
		Status:          req.Status,
		Actor:           domain.Actor{Name: cook, Role: domain.RoleKitchen},
		ExpectedVersion: req.ExpectedVersion,
	})
}

func (ks *KitchenService) Workers(ctx context.Context) ([]repository.Worker, error) {
	return ks.workers.Workers(ctx)
}

func (ks *KitchenService) Run(ctx context.Context) error {
	if strings.TrimSpace(ks.opts.WorkerName) == "" {
		return fmt.Errorf("worker name is empty: pass --worker-name")
	}
	types := make([]string, len(ks.opts.OrderTypes))
	for i, t := range ks.opts.OrderTypes {
		types[i] = string(t)
	}
	if err := ks.workers.Register(ctx, ks.opts.WorkerName, strings.Join(types, ",")); err != nil {
		ks.log.Error("worker_registration_failed", err, nil)
		return err
	}
	ks.log.Info("worker_registered", map[string]any{"name": ks.opts.WorkerName, "order_types": ks.opts.OrderTypes})

	msgs, stop, err := ks.consumer.Consume(rabbitmq.KitchenQueue, ks.opts.WorkerName, ks.opts.Prefetch)
	if err != nil {
		_ = ks.workers.SetOffline(context.WithoutCancel(ctx), ks.opts.WorkerName)
		return err
	}

	stopBeat := make(chan struct{})
	go ks.heartbeat(ctx, stopBeat)

	ks.log.Info("consuming", map[string]any{"queue": rabbitmq.KitchenQueue, "prefetch": ks.opts.Prefetch})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for d := range msgs {
			ks.settle(ctx, d, ks.processOne(ctx, d))
		}
	}()

	select {
	case <-ctx.Done():
	case <-done:
		ks.log.Info("delivery_channel_closed", nil)
	}
	ks.log.Info("graceful_shutdown", map[string]any{"worker": ks.opts.WorkerName})

	stop()
	close(stopBeat)
	<-done
	return ks.workers.SetOffline(context.WithoutCancel(ctx), ks.opts.WorkerName)
}

func (ks *KitchenService) heartbeat(ctx context.Context, stop <-chan struct{}) {
	t := time.NewTicker(ks.opts.BeatEvery)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			if err := ks.workers.Heartbeat(ctx, ks.opts.WorkerName); err != nil {
				ks.log.Error("heartbeat_failed", err, nil)
				continue
			}
			ks.log.Debug("heartbeat_sent", map[string]any{"worker": ks.opts.WorkerName})
		}
	}
}

func (ks *KitchenService) settle(ctx context.Context, d amqp.Delivery, err error) {
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrDLQ):
		ks.log.Error("message_dead_lettered", err, map[string]any{"correlation_id": d.CorrelationId})
		_ = d.Nack(false, false)
	default:
		t := time.NewTimer(ks.opts.RequeueDelay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
		_ = d.Nack(false, true)
	}
}

func (ks *KitchenService) allowedType(t domain.OrderType) bool {
	if len(ks.opts.OrderTypes) == 0 {
		return true
	}
	return slices.Contains(ks.opts.OrderTypes, t)
}

// processOne accepts a new order into the kitchen. Redelivery is harmless: an order
// already past pending is acknowledged without change.
func (ks *KitchenService) processOne(ctx context.Context, d amqp.Delivery) error {
	var msg domain.OrderMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrDLQ, err)
	}
	if msg.OrderID == "" || msg.OrderType == "" {
		return fmt.Errorf("%w: message without order id or type", ErrDLQ)
	}
	if !ks.allowedType(msg.OrderType) {
		return ErrRequeue
	}

	ctx, span := ks.tracer.Start(rabbitmq.ExtractTrace(ctx, d.Headers), "kitchen.Accept",
		trace.WithAttributes(attribute.String("order.number", msg.OrderNumber)))
	defer span.End()

	o, err := ks.orders.GetOrder(ctx, msg.OrderID)
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrDLQ, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequeue, err)
	}
	if o.Status != domain.StatusPending {
		ks.log.Debug("order_already_accepted", map[string]any{"order_number": o.Number, "status": o.Status})
		return nil
	}

	_, err = ks.orders.TransitionStatus(ctx, o.ID, orderdto.TransitionRequest{
		Status:          string(domain.StatusInKitchen),
		Actor:           domain.Actor{Name: ks.opts.WorkerName, Role: domain.RoleSystem},
		ExpectedVersion: o.Version,
	})
	switch {
	case errors.Is(err, domain.ErrIllegalTransition):
		return nil
	case err != nil:
		return fmt.Errorf("%w: %v", ErrRequeue, err)
	}

	if err := ks.workers.RecordProcessed(ctx, ks.opts.WorkerName); err != nil {
		ks.log.Error("worker_stats_failed", err, nil)
	}
	ks.log.Info("order_accepted", map[string]any{"order_number": o.Number, "priority": msg.Priority})
	return nil
}
