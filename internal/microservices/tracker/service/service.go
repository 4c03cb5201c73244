package service

import (
	"time"

	"restaurant-pos/internal/microservices/tracker/repository"
)

type Service struct {
	TrackerService TrackerServiceInterface
}

func New(repo repository.TrackerRepoInterface, estimate time.Duration) *Service {
	return &Service{TrackerService: NewTrackerService(repo, estimate, nil)}
}
