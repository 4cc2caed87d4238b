package reconcile_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lobzik223/runa-ledger/internal/reconcile"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newService(t *testing.T) (*reconcile.Service, *reconcile.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := reconcile.NewMockRepository(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return reconcile.NewService(repo, logger), repo
}

func TestService_Run(t *testing.T) {
	t.Run("ReportsDrift", func(t *testing.T) {
		svc, repo := newService(t)

		drift := &reconcile.Drift{
			AccountID:   uuid.New(),
			UserID:      uuid.New(),
			AccountName: "Travel card",
			Recorded:    dec("5200"),
			Derived:     dec("5000"),
		}

		repo.EXPECT().ListDrift(gomock.Any()).Return([]*reconcile.Drift{drift}, nil)

		drifts, err := svc.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, drifts, 1)
		assert.True(t, drifts[0].Delta().Equal(dec("200")))
	})

	t.Run("CleanLedger", func(t *testing.T) {
		svc, repo := newService(t)

		repo.EXPECT().ListDrift(gomock.Any()).Return(nil, nil)

		drifts, err := svc.Run(context.Background())
		require.NoError(t, err)
		assert.Empty(t, drifts)
	})
}
