package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"restaurant-pos/internal/common/httpx"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/microservices/order/domain/dto"
	"restaurant-pos/internal/microservices/order/repository"
	"restaurant-pos/internal/microservices/order/service"
)

const IdempotencyHeader = "Idempotency-Key"

type OrderHandler struct {
	service service.OrderServiceInterface
	log     *logger.Logger
}

func NewOrderHandler(s service.OrderServiceInterface, log *logger.Logger) *OrderHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &OrderHandler{service: s, log: log}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err)
	}
	return nil
}

func (oh *OrderHandler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	if domain.KindOf(err) == "" {
		oh.log.Error(action, err, map[string]any{"path": r.URL.Path})
	}
	httpx.WriteError(w, err)
}

func (oh *OrderHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req dto.QuoteRequest
	if err := decode(r, &req); err != nil {
		oh.fail(w, r, "quote_failed", err)
		return
	}
	resp, err := oh.service.Quote(r.Context(), req)
	if err != nil {
		oh.fail(w, r, "quote_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (oh *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req dto.CheckoutRequest
	if err := decode(r, &req); err != nil {
		oh.fail(w, r, "checkout_failed", err)
		return
	}
	resp, err := oh.service.Checkout(r.Context(), strings.TrimSpace(r.Header.Get(IdempotencyHeader)), req)
	if err != nil {
		oh.fail(w, r, "checkout_failed", err)
		return
	}
	code := http.StatusCreated
	if resp.Replay {
		code = http.StatusOK
	}
	httpx.WriteJSON(w, code, resp)
}

func (oh *OrderHandler) AddOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceOrderRequest
	if err := decode(r, &req); err != nil {
		oh.fail(w, r, "add_order_failed", err)
		return
	}
	o, err := oh.service.PlaceOrder(r.Context(), req)
	if err != nil {
		oh.fail(w, r, "add_order_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, o)
}

// ListOrders accepts ?status=pending,ready&branch=b1&number=ORD_20261015_001&limit=50.
func (oh *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := repository.Filter{
		BranchID: q.Get("branch"),
		Number:   q.Get("number"),
		Limit:    httpx.AtoiDefault(q.Get("limit"), 0),
	}
	if raw := q.Get("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, err := domain.ParseStatus(part)
			if err != nil {
				oh.fail(w, r, "list_orders_failed", err)
				return
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	orders, err := oh.service.ListOrders(r.Context(), f)
	if err != nil {
		oh.fail(w, r, "list_orders_failed", err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	httpx.WriteJSON(w, http.StatusOK, orders)
}

func (oh *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := oh.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		oh.fail(w, r, "get_order_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (oh *OrderHandler) StatusLog(w http.ResponseWriter, r *http.Request) {
	entries, err := oh.service.StatusLog(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		oh.fail(w, r, "status_log_failed", err)
		return
	}
	if entries == nil {
		entries = []domain.StatusLogEntry{}
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

func (oh *OrderHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	rec, err := oh.service.Receipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		oh.fail(w, r, "receipt_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, rec)
}

func (oh *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	var req dto.TransitionRequest
	if err := decode(r, &req); err != nil {
		oh.fail(w, r, "transition_failed", err)
		return
	}
	o, err := oh.service.TransitionStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		oh.fail(w, r, "transition_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (oh *OrderHandler) Override(w http.ResponseWriter, r *http.Request) {
	var req dto.TransitionRequest
	if err := decode(r, &req); err != nil {
		oh.fail(w, r, "override_failed", err)
		return
	}
	o, err := oh.service.OverrideStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		oh.fail(w, r, "override_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}

func (oh *OrderHandler) Split(w http.ResponseWriter, r *http.Request) {
	var req dto.SplitRequest
	if err := decode(r, &req); err != nil {
		oh.fail(w, r, "split_failed", err)
		return
	}
	resp, err := oh.service.SplitOrders(r.Context(), req)
	if err != nil {
		oh.fail(w, r, "split_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
