package schedule_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lobzik223/runa-ledger/internal/schedule"
)

func TestService_ListDue(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := schedule.NewMockRepository(ctrl)
	svc := schedule.NewService(repo)

	accountID := uuid.New()
	due := []*schedule.Event{
		{
			ID:     uuid.New(),
			Kind:   schedule.KindCreditPayment,
			Status: schedule.StatusScheduled,
			Owner:  schedule.CreditOwner(accountID),
			DueAt:  time.Now().Add(24 * time.Hour),
		},
	}

	repo.EXPECT().ListDue(gomock.Any(), 72*time.Hour).Return(due, nil)

	events, err := svc.ListDue(context.Background(), 72*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, due, events)
}
