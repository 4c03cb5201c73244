package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"restaurant-pos/internal/common/httpx"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/microservices/kitchen/service"
)

type Handler struct {
	svc service.KitchenServiceInterface
	log *logger.Logger
}

func New(s *service.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{svc: s.KitchenService, log: log}
}

func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/kitchen/queue", h.queue)
	r.Get("/kitchen/workers", h.workers)
	r.Post("/kitchen/orders/{id}/status", h.setStatus)
	return r
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	if domain.KindOf(err) == "" {
		h.log.Error(action, err, nil)
	}
	httpx.WriteError(w, err)
}

func (h *Handler) queue(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.svc.Queue(r.Context(), r.URL.Query().Get("branch"))
	if err != nil {
		h.fail(w, "queue_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, tickets)
}

func (h *Handler) workers(w http.ResponseWriter, r *http.Request) {
	ws, err := h.svc.Workers(r.Context())
	if err != nil {
		h.fail(w, "workers_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, ws)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req service.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, "kitchen_status_failed", fmt.Errorf("%w: invalid JSON body: %v", domain.ErrValidation, err))
		return
	}
	o, err := h.svc.SetStatus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, "kitchen_status_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, o)
}
