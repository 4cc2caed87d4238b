package reconcile

import (
	"context"
	"log/slog"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=reconcile
type Repository interface {
	ListDrift(ctx context.Context) ([]*Drift, error)
}

// Service runs the ledger consistency report.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Run collects and logs every drifting account. It reports; it never fixes.
func (s *Service) Run(ctx context.Context) ([]*Drift, error) {
	drifts, err := s.repo.ListDrift(ctx)
	if err != nil {
		return nil, err
	}

	for _, d := range drifts {
		s.logger.Warn("credit balance drift",
			"account_id", d.AccountID,
			"account_name", d.AccountName,
			"user_id", d.UserID,
			"recorded", d.Recorded.String(),
			"derived", d.Derived.String(),
			"delta", d.Delta().String(),
		)
	}

	if len(drifts) == 0 {
		s.logger.Info("ledger consistent, no drift found")
	}

	return drifts, nil
}
