package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"restaurant-pos/internal/domain"
	"restaurant-pos/internal/microservices/tracker/models"
	"restaurant-pos/internal/microservices/tracker/repository"
)

const SoonLabel = "Soon"

// steps is the reduced customer lifecycle; completed folds into Served.
var steps = []struct {
	label    string
	statuses []domain.Status
}{
	{"Order Received", []domain.Status{domain.StatusPending}},
	{"Preparing", []domain.Status{domain.StatusInKitchen}},
	{"Ready", []domain.Status{domain.StatusReady}},
	{"Served", []domain.Status{domain.StatusServed, domain.StatusCompleted}},
}

type TrackerServiceInterface interface {
	Progress(ctx context.Context, number string) (models.Progress, error)
	Timeline(ctx context.Context, number string) ([]models.TimelineEntry, error)
}

type TrackerService struct {
	repo     repository.TrackerRepoInterface
	estimate time.Duration
	now      func() time.Time
}

func NewTrackerService(repo repository.TrackerRepoInterface, estimate time.Duration, now func() time.Time) *TrackerService {
	if estimate <= 0 {
		estimate = 20 * time.Minute
	}
	if now == nil {
		now = time.Now
	}
	return &TrackerService{repo: repo, estimate: estimate, now: now}
}

func (s *TrackerService) lookup(ctx context.Context, number string) (domain.Order, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return domain.Order{}, fmt.Errorf("%w: order number is required", domain.ErrValidation)
	}
	return s.repo.OrderByNumber(ctx, number)
}

func (s *TrackerService) Progress(ctx context.Context, number string) (models.Progress, error) {
	o, err := s.lookup(ctx, number)
	if err != nil {
		return models.Progress{}, err
	}
	return Derive(o, s.now(), s.estimate), nil
}

func (s *TrackerService) Timeline(ctx context.Context, number string) ([]models.TimelineEntry, error) {
	o, err := s.lookup(ctx, number)
	if err != nil {
		return nil, err
	}
	log, err := s.repo.StatusLog(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TimelineEntry, len(log))
	for i, e := range log {
		out[i] = models.TimelineEntry{
			Status:    e.Status,
			Label:     StatusLabel(e.Status),
			ChangedBy: e.ChangedBy,
			At:        e.ChangedAt,
			Notes:     e.Notes,
		}
	}
	return out, nil
}

// StatusLabel is the customer-facing name of a status.
func StatusLabel(st domain.Status) string {
	if st == domain.StatusCancelled {
		return "Cancelled"
	}
	if i := stepIndex(st); i >= 0 {
		return steps[i].label
	}
	return string(st)
}

func stepIndex(st domain.Status) int {
	for i, step := range steps {
		for _, s := range step.statuses {
			if s == st {
				return i
			}
		}
	}
	return -1
}

// Derive projects an order onto the customer view. Only orders still waiting on the
// kitchen carry a remaining-time estimate: max(0, estimate - elapsed), "Soon" at zero.
func Derive(o domain.Order, now time.Time, estimate time.Duration) models.Progress {
	elapsed := int(max(now.Sub(o.CreatedAt), 0) / time.Minute)
	p := models.Progress{
		OrderNumber:    o.Number,
		Status:         o.Status,
		Label:          StatusLabel(o.Status),
		ElapsedMinutes: elapsed,
		UpdatedAt:      o.UpdatedAt,
	}
	if o.Status == domain.StatusCancelled {
		p.Cancelled = true
		return p
	}

	cur := stepIndex(o.Status)
	p.Steps = make([]models.Step, len(steps))
	for i, step := range steps {
		p.Steps[i] = models.Step{Label: step.label, Done: i < cur, Current: i == cur}
	}
	if cur == len(steps)-1 {
		p.Steps[cur].Done = true
	}

	if o.Status == domain.StatusPending || o.Status == domain.StatusInKitchen {
		remaining := max(int(estimate/time.Minute)-elapsed, 0)
		p.RemainingMinutes = &remaining
		if remaining == 0 {
			p.RemainingLabel = SoonLabel
		} else {
			p.RemainingLabel = fmt.Sprintf("%d min", remaining)
		}
	}
	return p
}
