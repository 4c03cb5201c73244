package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"restaurant-pos/internal/common/httpx"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/microservices/order/service"
)

type Handler struct {
	OrderHandler *OrderHandler
}

func New(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{
		OrderHandler: NewOrderHandler(s.OrderService, log),
	}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/quotes", h.OrderHandler.Quote)
	r.Post("/checkout", h.OrderHandler.Checkout)
	r.Post("/splits", h.OrderHandler.Split)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.OrderHandler.AddOrder)
		r.Get("/", h.OrderHandler.ListOrders)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.OrderHandler.GetOrder)
			r.Get("/log", h.OrderHandler.StatusLog)
			r.Get("/receipt", h.OrderHandler.Receipt)
			r.Post("/status", h.OrderHandler.Transition)
			r.Post("/override", h.OrderHandler.Override)
		})
	})
	return r
}
