package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"restaurant-pos/internal/billing/cart"
	"restaurant-pos/internal/billing/payment"
	"restaurant-pos/internal/billing/pricing"
	"restaurant-pos/internal/billing/split"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/connections/rabbitmq"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/microservices/order/domain/dto"
	"restaurant-pos/internal/microservices/order/repository"
)

type OrderServiceInterface interface {
	Quote(ctx context.Context, req dto.QuoteRequest) (dto.QuoteResponse, error)
	Checkout(ctx context.Context, idempotencyKey string, req dto.CheckoutRequest) (dto.CheckoutResponse, error)
	PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest) (domain.Order, error)
	GetOrder(ctx context.Context, id string) (domain.Order, error)
	ListOrders(ctx context.Context, f repository.Filter) ([]domain.Order, error)
	StatusLog(ctx context.Context, id string) ([]domain.StatusLogEntry, error)
	Receipt(ctx context.Context, id string) (domain.Receipt, error)
	TransitionStatus(ctx context.Context, id string, req dto.TransitionRequest) (domain.Order, error)
	OverrideStatus(ctx context.Context, id string, req dto.TransitionRequest) (domain.Order, error)
	SplitOrders(ctx context.Context, req dto.SplitRequest) (dto.SplitResponse, error)
}

type OrderService struct {
	repo   *repository.Repository
	pub    Publisher
	log    *logger.Logger
	opts   Options
	ids    *cart.LineIDs
	tracer trace.Tracer
}

func NewOrderService(repo *repository.Repository, pub Publisher, log *logger.Logger, opts Options) *OrderService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SharePolicy == "" {
		opts.SharePolicy = split.ShareFractional
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OrderService{
		repo:   repo,
		pub:    pub,
		log:    log,
		opts:   opts,
		ids:    cart.NewLineIDs(opts.Now),
		tracer: otel.Tracer("order-service"),
	}
}

// OrderNumber formats the human-facing number, ORD_YYYYMMDD_NNN.
func OrderNumber(day time.Time, seq int) string {
	return fmt.Sprintf("ORD_%s_%03d", day.UTC().Format("20060102"), seq)
}

// Priority maps an order total onto the kitchen queue priority.
func (or *OrderService) Priority(o domain.Order) int {
	switch {
	case o.Pricing.Total.GreaterThanOrEqual(or.opts.HighPriority):
		return 10
	case o.Pricing.Total.GreaterThanOrEqual(or.opts.MediumPriority):
		return 5
	default:
		return 1
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// buildDraft prices the requested lines against the branch catalog.
func (or *OrderService) buildDraft(ctx context.Context, req dto.DraftRequest) (*cart.Draft, error) {
	if strings.TrimSpace(req.BranchID) == "" {
		return nil, fmt.Errorf("%w: branch is required", domain.ErrValidation)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one item is required", domain.ErrValidation)
	}

	d := cart.NewDraft(or.ids, or.opts.TaxRate, or.opts.ServiceRate)
	notes := make(map[string][]string)
	for i, line := range req.Items {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", domain.ErrValidation, i)
		}
		item, err := or.repo.Catalog.Lookup(ctx, req.BranchID, line.CatalogItemID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown menu item %q", domain.ErrValidation, line.CatalogItemID)
		}
		if err != nil {
			return nil, err
		}
		if !item.Available {
			return nil, fmt.Errorf("%w: %s is unavailable", domain.ErrValidation, item.Name)
		}
		id := d.Add(item, line.Variation)
		d.UpdateQuantity(id, line.Quantity-1)
		if note := strings.TrimSpace(line.Note); note != "" {
			notes[id] = append(notes[id], note)
		}
	}
	// Lines merged into one cart line keep every note.
	for id, ns := range notes {
		d.SetNote(id, strings.Join(ns, "; "))
	}

	if req.Discount != nil {
		disc, err := pricing.ParseDiscount(req.Discount.Kind, req.Discount.Value)
		if err != nil {
			return nil, err
		}
		if err := d.ApplyDiscount(disc); err != nil {
			return nil, err
		}
	}
	if req.ServiceCharge {
		d.ToggleServiceCharge()
	}
	return d, nil
}

func (or *OrderService) fulfillment(ctx context.Context, branchID string, in dto.FulfillmentInput) (domain.Fulfillment, error) {
	typ, err := domain.ParseOrderType(in.OrderType)
	if err != nil {
		return domain.Fulfillment{}, err
	}
	f := domain.Fulfillment{
		Type:     typ,
		Customer: domain.Customer{Name: strings.TrimSpace(in.Customer.Name), Phone: strings.TrimSpace(in.Customer.Phone)},
		BranchID: branchID,
	}
	switch typ {
	case domain.OrderTypeDineIn:
		f.TableRef = strings.TrimSpace(in.TableRef)
	case domain.OrderTypeDelivery:
		f.DeliveryAddress = strings.TrimSpace(in.DeliveryAddress)
	}
	if err := f.Validate(); err != nil {
		return domain.Fulfillment{}, err
	}

	if typ == domain.OrderTypeDineIn {
		tables, err := or.repo.Tables.AvailableTables(ctx, branchID)
		if err != nil {
			return domain.Fulfillment{}, err
		}
		if !slices.Contains(tables, f.TableRef) {
			return domain.Fulfillment{}, fmt.Errorf("%w: table %s is not available in branch %s", domain.ErrValidation, f.TableRef, branchID)
		}
	}
	return f, nil
}

func (or *OrderService) newOrder(ctx context.Context, d *cart.Draft, f domain.Fulfillment) (domain.Order, error) {
	now := or.opts.Now().UTC()
	seq, err := or.repo.OrderRepo.NextOrderSeq(ctx, now)
	if err != nil {
		return domain.Order{}, err
	}
	return domain.Order{
		ID:              uuid.NewString(),
		Number:          OrderNumber(now, seq),
		Type:            f.Type,
		Status:          domain.StatusPending,
		Items:           d.Items(),
		Customer:        f.Customer,
		TableRef:        f.TableRef,
		DeliveryAddress: f.DeliveryAddress,
		Pricing:         d.Pricing(),
		BranchID:        f.BranchID,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}, nil
}

func (or *OrderService) Quote(ctx context.Context, req dto.QuoteRequest) (resp dto.QuoteResponse, err error) {
	ctx, span := or.tracer.Start(ctx, "order.Quote")
	defer func() { endSpan(span, err) }()

	d, err := or.buildDraft(ctx, req.DraftRequest)
	if err != nil {
		return dto.QuoteResponse{}, err
	}
	preview := domain.Order{Items: d.Items(), Pricing: d.Pricing(), CreatedAt: or.opts.Now().UTC()}
	resp = dto.QuoteResponse{
		Items:   preview.Items,
		Pricing: preview.Pricing,
		Display: domain.NewReceipt(preview, nil),
	}
	if len(req.Payments) > 0 {
		rem := payment.Remaining(preview.Pricing.Total, req.Payments)
		resp.Remaining = &rem
	}
	return resp, nil
}

func (or *OrderService) Checkout(ctx context.Context, key string, req dto.CheckoutRequest) (resp dto.CheckoutResponse, err error) {
	ctx, span := or.tracer.Start(ctx, "order.Checkout")
	defer func() { endSpan(span, err) }()

	if key != "" {
		var reserved bool
		if reserved, err = or.repo.Idempotency.Reserve(ctx, key); err != nil {
			return dto.CheckoutResponse{}, err
		}
		if !reserved {
			return or.replay(ctx, key)
		}
		defer func() {
			if err != nil {
				if rerr := or.repo.Idempotency.Release(context.WithoutCancel(ctx), key); rerr != nil {
					or.log.Error("idempotency_release_failed", rerr, map[string]any{"key": key})
				}
			}
		}()
	}

	d, err := or.buildDraft(ctx, req.DraftRequest)
	if err != nil {
		return dto.CheckoutResponse{}, err
	}
	f, err := or.fulfillment(ctx, req.BranchID, req.FulfillmentInput)
	if err != nil {
		return dto.CheckoutResponse{}, err
	}

	attempt := payment.NewAttempt(d.Pricing().Total)
	rec, err := attempt.Confirm(req.Payment)
	if err != nil {
		or.log.Info("payment_rejected", map[string]any{"method": req.Payment.Method, "reason": err.Error()})
		return dto.CheckoutResponse{}, err
	}

	o, err := or.newOrder(ctx, d, f)
	if err != nil {
		return dto.CheckoutResponse{}, err
	}
	o.PaymentMethod = rec.Method
	o.PaymentReference = rec.Reference
	if err := or.repo.OrderRepo.AddOrder(ctx, o); err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("failed to save order: %w", err)
	}
	span.SetAttributes(attribute.String("order.number", o.Number))
	or.log.Info("order_checked_out", map[string]any{
		"order_number": o.Number, "total": o.Pricing.Total.String(), "payment_method": rec.Method,
	})
	or.publishKitchen(ctx, o)

	resp = dto.CheckoutResponse{Order: o, Payment: rec, Receipt: domain.NewReceipt(o, &rec)}
	if key != "" {
		or.completeKey(ctx, key, resp)
	}
	return resp, nil
}

// completeKey stores the committed result under key. The order is already saved, so a
// failure here is logged rather than returned; the key is released so retries are not
// refused as in-flight until the reservation expires.
func (or *OrderService) completeKey(ctx context.Context, key string, resp dto.CheckoutResponse) {
	ctx = context.WithoutCancel(ctx)
	b, err := json.Marshal(resp)
	if err == nil {
		err = or.repo.Idempotency.Complete(ctx, key, b)
	}
	if err == nil {
		return
	}
	or.log.Error("idempotency_store_failed", err, map[string]any{"key": key, "order_number": resp.Order.Number})
	if rerr := or.repo.Idempotency.Release(ctx, key); rerr != nil {
		or.log.Error("idempotency_release_failed", rerr, map[string]any{"key": key, "order_number": resp.Order.Number})
	}
}

func (or *OrderService) replay(ctx context.Context, key string) (dto.CheckoutResponse, error) {
	prev, err := or.repo.Idempotency.Result(ctx, key)
	if err != nil {
		return dto.CheckoutResponse{}, err
	}
	if prev == nil {
		return dto.CheckoutResponse{}, fmt.Errorf("%w: checkout %q is still in progress", domain.ErrDuplicateRequest, key)
	}
	var resp dto.CheckoutResponse
	if err := json.Unmarshal(prev, &resp); err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("decode stored checkout: %w", err)
	}
	resp.Replay = true
	return resp, nil
}

// PlaceOrder commits an order without taking payment; it goes straight to the kitchen.
func (or *OrderService) PlaceOrder(ctx context.Context, req dto.PlaceOrderRequest) (o domain.Order, err error) {
	ctx, span := or.tracer.Start(ctx, "order.PlaceOrder")
	defer func() { endSpan(span, err) }()

	d, err := or.buildDraft(ctx, req.DraftRequest)
	if err != nil {
		return domain.Order{}, err
	}
	f, err := or.fulfillment(ctx, req.BranchID, req.FulfillmentInput)
	if err != nil {
		return domain.Order{}, err
	}
	o, err = or.newOrder(ctx, d, f)
	if err != nil {
		return domain.Order{}, err
	}
	if err := or.repo.OrderRepo.AddOrder(ctx, o); err != nil {
		return domain.Order{}, fmt.Errorf("failed to save order: %w", err)
	}
	or.log.Info("order_placed", map[string]any{"order_number": o.Number, "total": o.Pricing.Total.String()})
	or.publishKitchen(ctx, o)
	return o, nil
}

// publishKitchen routes the order to the kitchen. A broker failure is logged, not
// returned: the order is already committed and the kitchen view reads the store.
func (or *OrderService) publishKitchen(ctx context.Context, o domain.Order) {
	if or.pub == nil {
		return
	}
	prio := or.Priority(o)
	body, err := json.Marshal(domain.OrderMessage{
		OrderID:         o.ID,
		OrderNumber:     o.Number,
		CustomerName:    o.Customer.Name,
		OrderType:       o.Type,
		TableRef:        o.TableRef,
		DeliveryAddress: o.DeliveryAddress,
		BranchID:        o.BranchID,
		Items:           o.Items,
		Total:           o.Pricing.Total,
		Priority:        prio,
	})
	if err != nil {
		or.log.Error("order_publish_failed", err, map[string]any{"order_number": o.Number})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	key := fmt.Sprintf("kitchen.%s.%d", o.Type, prio)
	err = or.pub.Publish(ctx, rabbitmq.OrdersExchange, key, rabbitmq.Message{
		Body:          body,
		CorrelationID: o.Number,
		Priority:      uint8(prio),
		Headers:       rabbitmq.InjectTrace(ctx, map[string]any{"x-source": "order-service"}),
	})
	if err != nil {
		or.log.Error("order_publish_failed", err, map[string]any{"order_number": o.Number, "routing_key": key})
		return
	}
	or.log.Debug("order_published", map[string]any{"order_number": o.Number, "routing_key": key})
}

func (or *OrderService) publishStatus(ctx context.Context, before, after domain.Order, actor domain.Actor, override bool) {
	if or.pub == nil {
		return
	}
	body, err := json.Marshal(domain.StatusMessage{
		OrderID:     after.ID,
		OrderNumber: after.Number,
		OldStatus:   before.Status,
		NewStatus:   after.Status,
		ChangedBy:   actor.Name,
		Override:    override,
		Timestamp:   after.UpdatedAt,
	})
	if err != nil {
		or.log.Error("status_publish_failed", err, map[string]any{"order_number": after.Number})
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	err = or.pub.Publish(ctx, rabbitmq.NotificationsExchange, "", rabbitmq.Message{
		Body:          body,
		CorrelationID: after.Number,
		Headers:       rabbitmq.InjectTrace(ctx, nil),
	})
	if err != nil {
		or.log.Error("status_publish_failed", err, map[string]any{"order_number": after.Number})
	}
}

func (or *OrderService) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	return or.repo.OrderRepo.GetOrder(ctx, id)
}

func (or *OrderService) ListOrders(ctx context.Context, f repository.Filter) ([]domain.Order, error) {
	return or.repo.OrderRepo.ListOrders(ctx, f)
}

func (or *OrderService) StatusLog(ctx context.Context, id string) ([]domain.StatusLogEntry, error) {
	if _, err := or.repo.OrderRepo.GetOrder(ctx, id); err != nil {
		return nil, err
	}
	return or.repo.OrderRepo.StatusLog(ctx, id)
}

// Receipt rebuilds receipt data for a committed order. Tendered cash is not persisted,
// so only the payment method is shown.
func (or *OrderService) Receipt(ctx context.Context, id string) (domain.Receipt, error) {
	o, err := or.repo.OrderRepo.GetOrder(ctx, id)
	if err != nil {
		return domain.Receipt{}, err
	}
	r := domain.NewReceipt(o, nil)
	r.PaymentMethod = o.PaymentMethod
	return r, nil
}

func (or *OrderService) TransitionStatus(ctx context.Context, id string, req dto.TransitionRequest) (domain.Order, error) {
	return or.changeStatus(ctx, "order.TransitionStatus", id, req, domain.TransitionAs, false)
}

// OverrideStatus is the manager path that may skip forward over intermediate states.
func (or *OrderService) OverrideStatus(ctx context.Context, id string, req dto.TransitionRequest) (domain.Order, error) {
	return or.changeStatus(ctx, "order.OverrideStatus", id, req, domain.Override, true)
}

func (or *OrderService) changeStatus(
	ctx context.Context, spanName, id string, req dto.TransitionRequest,
	check func(domain.Actor, domain.Status, domain.Status) error, override bool,
) (updated domain.Order, err error) {
	ctx, span := or.tracer.Start(ctx, spanName, trace.WithAttributes(attribute.String("order.id", id)))
	defer func() { endSpan(span, err) }()

	if req.Actor.Role == "" {
		return domain.Order{}, fmt.Errorf("%w: actor role is required", domain.ErrValidation)
	}
	to, err := domain.ParseStatus(req.Status)
	if err != nil {
		return domain.Order{}, err
	}
	current, err := or.repo.OrderRepo.GetOrder(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	version := current.Version
	if req.ExpectedVersion != 0 {
		version = req.ExpectedVersion
	}
	if err := check(req.Actor, current.Status, to); err != nil {
		return domain.Order{}, err
	}

	notes := req.Notes
	if override {
		notes = strings.TrimSpace("override " + notes)
	}
	changedBy := req.Actor.Name
	if changedBy == "" {
		changedBy = string(req.Actor.Role)
	}
	updated, err = or.repo.OrderRepo.UpdateOrder(ctx, id, repository.Patch{
		ExpectedVersion: version,
		Status:          &to,
		ChangedBy:       changedBy,
		Notes:           notes,
		At:              or.opts.Now().UTC(),
	})
	if err != nil {
		return domain.Order{}, err
	}

	or.log.Info("status_changed", map[string]any{
		"order_number": updated.Number,
		"old_status":   current.Status,
		"new_status":   updated.Status,
		"changed_by":   changedBy,
		"override":     override,
	})
	or.publishStatus(ctx, current, updated, domain.Actor{Name: changedBy, Role: req.Actor.Role}, override)
	return updated, nil
}

func (or *OrderService) SplitOrders(ctx context.Context, req dto.SplitRequest) (resp dto.SplitResponse, err error) {
	ctx, span := or.tracer.Start(ctx, "order.SplitOrders")
	defer func() { endSpan(span, err) }()

	if len(req.OrderIDs) == 0 {
		return dto.SplitResponse{}, fmt.Errorf("%w: at least one order is required", domain.ErrValidation)
	}
	orders := make([]domain.Order, 0, len(req.OrderIDs))
	for i, id := range req.OrderIDs {
		if slices.Contains(req.OrderIDs[:i], id) {
			return dto.SplitResponse{}, fmt.Errorf("%w: order %s listed twice", domain.ErrValidation, id)
		}
		o, err := or.repo.OrderRepo.GetOrder(ctx, id)
		if err != nil {
			return dto.SplitResponse{}, err
		}
		if o.Status == domain.StatusCancelled {
			return dto.SplitResponse{}, fmt.Errorf("%w: order %s is cancelled", domain.ErrValidation, o.Number)
		}
		orders = append(orders, o)
	}
	src := split.Merge(orders...)

	var bills []domain.SplitBill
	resp = dto.SplitResponse{OrderIDs: src.OrderIDs, Source: src.Pricing}
	switch strings.ToLower(req.Mode) {
	case "", "equal":
		bills, err = split.Equal(src, req.Parts)
	case "custom":
		policy := or.opts.SharePolicy
		if req.Policy != "" {
			if policy, err = split.ParsePolicy(req.Policy); err != nil {
				return dto.SplitResponse{}, err
			}
		}
		resp.Policy = string(policy)
		bills, err = split.Custom(src, req.Parts, split.Assignment(req.Assignment), policy)
	default:
		err = fmt.Errorf("%w: unknown split mode %q", domain.ErrValidation, req.Mode)
	}
	if err != nil {
		return dto.SplitResponse{}, err
	}
	resp.Bills = bills
	return resp, nil
}
