package schedule

import (
	"context"
	"time"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=schedule
type Repository interface {
	ListDue(ctx context.Context, within time.Duration) ([]*Event, error)
}

// Service exposes the read side of the schedule: the due-window listing the
// notification collaborator and the TUI consume. Writes happen through the
// account managers, which replace events atomically with their account rows.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListDue(ctx context.Context, within time.Duration) ([]*Event, error) {
	return s.repo.ListDue(ctx, within)
}
