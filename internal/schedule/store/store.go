package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lobzik223/runa-ledger/internal/schedule"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx, so the store can run inside
// the transaction of the manager that owns the account row.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

// ownerColumn maps an owner reference to its foreign-key column.
func ownerColumn(owner schedule.Owner) (string, any, error) {
	switch {
	case owner.CreditAccountID != nil && owner.DepositAccountID != nil:
		return "", nil, fmt.Errorf("event owner references both a credit and a deposit account")
	case owner.CreditAccountID != nil:
		return "credit_account_id", *owner.CreditAccountID, nil
	case owner.DepositAccountID != nil:
		return "deposit_account_id", *owner.DepositAccountID, nil
	default:
		return "", nil, fmt.Errorf("event owner references no account")
	}
}

// Replace deletes the scheduled event for (owner, kind) and inserts the
// freshly computed one. Callers run it inside the owning account's
// transaction, so readers never observe zero or duplicate entries.
//
// The delete and insert must be separate statements: a data-modifying CTE
// does not order the two against the partial unique index, so the insert
// collides with the still-live old row.
func (s *Store) Replace(ctx context.Context, owner schedule.Owner, kind schedule.Kind, dueAt time.Time, amount decimal.Decimal, currency string) error {
	col, id, err := ownerColumn(owner)
	if err != nil {
		return err
	}

	clear := fmt.Sprintf(
		"DELETE FROM scheduled_events WHERE %s = $1 AND kind = $2 AND status = 'scheduled'", col)

	if _, err := s.db.ExecContext(ctx, clear, id, kind); err != nil {
		return fmt.Errorf("clearing scheduled event: %w", err)
	}

	insert := fmt.Sprintf(`
		INSERT INTO scheduled_events (kind, %s, due_at, amount, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 'scheduled', NOW(), NOW())
	`, col)

	if _, err := s.db.ExecContext(ctx, insert, kind, id, dueAt, amount, currency); err != nil {
		return fmt.Errorf("inserting scheduled event: %w", err)
	}

	return nil
}

// DeleteAll removes every event for (owner, kind) regardless of status.
// Used when the owning account is deleted or loses schedule eligibility.
func (s *Store) DeleteAll(ctx context.Context, owner schedule.Owner, kind schedule.Kind) error {
	col, id, err := ownerColumn(owner)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM scheduled_events WHERE %s = $1 AND kind = $2", col)

	if _, err := s.db.ExecContext(ctx, query, id, kind); err != nil {
		return fmt.Errorf("deleting scheduled events: %w", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// Expected column order: id, kind, credit_account_id, deposit_account_id,
// due_at, amount, currency, status, last_notified_at, created_at, updated_at
func scanEvent(s scanner) (*schedule.Event, error) {
	var ev schedule.Event

	var kindStr, statusStr string

	if err := s.Scan(
		&ev.ID, &kindStr, &ev.Owner.CreditAccountID, &ev.Owner.DepositAccountID,
		&ev.DueAt, &ev.Amount, &ev.Currency, &statusStr,
		&ev.LastNotifiedAt, &ev.CreatedAt, &ev.UpdatedAt,
	); err != nil {
		return nil, err
	}

	ev.Kind = schedule.Kind(kindStr)
	ev.Status = schedule.Status(statusStr)

	return &ev, nil
}

const selectEventColumns = `
	id, kind, credit_account_id, deposit_account_id,
	due_at, amount, currency, status, last_notified_at, created_at, updated_at
`

// ListDue returns scheduled events with a due date inside the window
// [now, now+within), ordered by due date. This is the projection the
// notification collaborator reads.
func (s *Store) ListDue(ctx context.Context, within time.Duration) ([]*schedule.Event, error) {
	query := `SELECT ` + selectEventColumns + `
		FROM scheduled_events
		WHERE status = 'scheduled' AND due_at < NOW() + $1::interval
		ORDER BY due_at ASC`

	rows, err := s.db.QueryContext(ctx, query, within.String())
	if err != nil {
		return nil, fmt.Errorf("listing due events: %w", err)
	}
	defer rows.Close()

	var events []*schedule.Event

	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}

		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating event rows: %w", err)
	}

	return events, nil
}
