package store_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lobzik223/runa-ledger/internal/schedule"
	"github.com/lobzik223/runa-ledger/internal/schedule/store"
)

type statement struct {
	query string
	args  []any
}

// recorder satisfies store.DBTX and captures the statements a call issues.
type recorder struct {
	statements []statement
}

func (r *recorder) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.statements = append(r.statements, statement{query: query, args: args})
	return noResult{}, nil
}

func (r *recorder) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, nil
}

func (r *recorder) QueryRowContext(context.Context, string, ...any) *sql.Row {
	return nil
}

type noResult struct{}

func (noResult) LastInsertId() (int64, error) { return 0, nil }
func (noResult) RowsAffected() (int64, error) { return 0, nil }

func TestStore_Replace(t *testing.T) {
	accountID := uuid.New()
	dueAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	amount := decimal.RequireFromString("6000")

	t.Run("DeletesBeforeInserting", func(t *testing.T) {
		rec := &recorder{}
		s := store.New(rec)

		err := s.Replace(context.Background(), schedule.CreditOwner(accountID), schedule.KindCreditPayment, dueAt, amount, "RUB")
		require.NoError(t, err)

		// The old row must be gone before the insert hits the partial unique
		// index, so the two may never share a statement.
		require.Len(t, rec.statements, 2)

		del := rec.statements[0]
		assert.Contains(t, del.query, "DELETE FROM scheduled_events")
		assert.Contains(t, del.query, "credit_account_id = $1")
		assert.Contains(t, del.query, "status = 'scheduled'")
		assert.NotContains(t, del.query, "INSERT")
		assert.Equal(t, []any{accountID, schedule.KindCreditPayment}, del.args)

		ins := rec.statements[1]
		assert.Contains(t, ins.query, "INSERT INTO scheduled_events")
		assert.NotContains(t, ins.query, "WITH")
		assert.NotContains(t, ins.query, "DELETE")
		assert.Equal(t, []any{schedule.KindCreditPayment, accountID, dueAt, amount, "RUB"}, ins.args)
	})

	t.Run("DepositOwnerTargetsDepositColumn", func(t *testing.T) {
		rec := &recorder{}
		s := store.New(rec)

		err := s.Replace(context.Background(), schedule.DepositOwner(accountID), schedule.KindDepositInterest, dueAt, amount, "RUB")
		require.NoError(t, err)

		require.Len(t, rec.statements, 2)
		assert.Contains(t, rec.statements[0].query, "deposit_account_id = $1")
		assert.NotContains(t, rec.statements[0].query, "credit_account_id")
	})

	t.Run("AmbiguousOwnerRejected", func(t *testing.T) {
		rec := &recorder{}
		s := store.New(rec)

		creditID := uuid.New()
		depositID := uuid.New()
		owner := schedule.Owner{CreditAccountID: &creditID, DepositAccountID: &depositID}

		err := s.Replace(context.Background(), owner, schedule.KindCreditPayment, dueAt, amount, "RUB")
		require.Error(t, err)
		assert.Empty(t, rec.statements)
	})
}

func TestStore_DeleteAll(t *testing.T) {
	accountID := uuid.New()

	rec := &recorder{}
	s := store.New(rec)

	err := s.DeleteAll(context.Background(), schedule.CreditOwner(accountID), schedule.KindCreditPayment)
	require.NoError(t, err)

	require.Len(t, rec.statements, 1)

	// Unlike Replace, DeleteAll clears notified history rows too.
	assert.Contains(t, rec.statements[0].query, "DELETE FROM scheduled_events")
	assert.NotContains(t, rec.statements[0].query, "status")
	assert.Equal(t, []any{accountID, schedule.KindCreditPayment}, rec.statements[0].args)
}
