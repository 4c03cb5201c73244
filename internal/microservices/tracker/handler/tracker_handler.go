package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"restaurant-pos/internal/common/httpx"
	"restaurant-pos/internal/common/logger"
	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/microservices/tracker/service"
)

type TrackerHandler struct {
	service service.TrackerServiceInterface
	log     *logger.Logger
}

func NewTrackerHandler(svc *service.Service, log *logger.Logger) *TrackerHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &TrackerHandler{service: svc.TrackerService, log: log}
}

func (h *TrackerHandler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Route("/api/v1/tracking/orders/{order_number}", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Get("/timeline", h.GetTimeline)
	})
	return r
}

func (h *TrackerHandler) fail(w http.ResponseWriter, action string, err error) {
	if domain.KindOf(err) == "" {
		h.log.Error(action, err, nil)
	}
	httpx.WriteError(w, err)
}

func (h *TrackerHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Progress(r.Context(), chi.URLParam(r, "order_number"))
	if err != nil {
		h.fail(w, "tracking_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *TrackerHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	number := chi.URLParam(r, "order_number")
	events, err := h.service.Timeline(r.Context(), number)
	if err != nil {
		h.fail(w, "timeline_failed", err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order_number": number, "events": events})
}
