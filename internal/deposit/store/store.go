package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/lobzik223/runa-ledger/internal/deposit"
	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/interest"
	"github.com/lobzik223/runa-ledger/internal/schedule"
	schedulestore "github.com/lobzik223/runa-ledger/internal/schedule/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectAccountColumns = `
	id, user_id, name, currency, principal, interest_rate, payout_schedule,
	next_payout_at, maturity_at, created_at, updated_at
`

func scanAccount(s scanner) (*deposit.Account, error) {
	var acct deposit.Account

	var schedStr string

	if err := s.Scan(
		&acct.ID, &acct.UserID, &acct.Name, &acct.Currency,
		&acct.Principal, &acct.InterestRate, &schedStr,
		&acct.NextPayoutAt, &acct.MaturityAt,
		&acct.CreatedAt, &acct.UpdatedAt,
	); err != nil {
		return nil, err
	}

	acct.PayoutSchedule = interest.PayoutSchedule(schedStr)

	return &acct, nil
}

// CreateAccount inserts the account row and, in the same transaction, the
// initial interest-payout event when one is due.
func (s *Store) CreateAccount(ctx context.Context, acct *deposit.Account, ev *schedule.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Unavailable("beginning deposit create", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO deposit_accounts (
			user_id, name, currency, principal, interest_rate, payout_schedule,
			next_payout_at, maturity_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at
	`

	err = tx.QueryRowContext(ctx, query,
		acct.UserID, acct.Name, acct.Currency,
		acct.Principal, acct.InterestRate, acct.PayoutSchedule,
		acct.NextPayoutAt, acct.MaturityAt,
	).Scan(&acct.ID, &acct.CreatedAt)
	if err != nil {
		return domain.Unavailable("creating deposit account", err)
	}

	if ev != nil {
		ev.Owner = schedule.DepositOwner(acct.ID)

		if err := schedulestore.New(tx).Replace(ctx, ev.Owner, ev.Kind, ev.DueAt, ev.Amount, ev.Currency); err != nil {
			return domain.Unavailable("scheduling payout event", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Unavailable("committing deposit create", err)
	}

	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*deposit.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM deposit_accounts WHERE id = $1`

	acct, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NotFoundf("deposit account %s not found", id)
		}

		return nil, domain.Unavailable("getting deposit account", err)
	}

	return acct, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID) ([]*deposit.Account, error) {
	query := `SELECT ` + selectAccountColumns + `
		FROM deposit_accounts
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, domain.Unavailable("listing deposit accounts", err)
	}
	defer rows.Close()

	var accts []*deposit.Account

	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, domain.Unavailable("scanning deposit account", err)
		}

		accts = append(accts, acct)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("iterating deposit account rows", err)
	}

	return accts, nil
}

func (s *Store) CountAccounts(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM deposit_accounts WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		return 0, domain.Unavailable("counting deposit accounts", err)
	}

	return count, nil
}

// UpdateAccount persists the merged account row and, when reschedule is set,
// replaces or deletes the payout event in the same transaction.
func (s *Store) UpdateAccount(ctx context.Context, acct *deposit.Account, ev *schedule.Event, reschedule bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Unavailable("beginning deposit update", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE deposit_accounts
		SET name = $1, currency = $2, principal = $3, interest_rate = $4,
			payout_schedule = $5, next_payout_at = $6, maturity_at = $7, updated_at = NOW()
		WHERE id = $8
	`

	res, err := tx.ExecContext(ctx, query,
		acct.Name, acct.Currency, acct.Principal, acct.InterestRate,
		acct.PayoutSchedule, acct.NextPayoutAt, acct.MaturityAt,
		acct.ID,
	)
	if err != nil {
		return domain.Unavailable("updating deposit account", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("deposit account %s not found", acct.ID)
	}

	if reschedule {
		owner := schedule.DepositOwner(acct.ID)
		events := schedulestore.New(tx)

		if ev != nil {
			err = events.Replace(ctx, owner, ev.Kind, ev.DueAt, ev.Amount, ev.Currency)
		} else {
			err = events.DeleteAll(ctx, owner, schedule.KindDepositInterest)
		}

		if err != nil {
			return domain.Unavailable("rescheduling payout event", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Unavailable("committing deposit update", err)
	}

	return nil
}

// DeleteAccount removes the scheduled events, then the account.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Unavailable("beginning deposit delete", err)
	}
	defer tx.Rollback()

	if err := schedulestore.New(tx).DeleteAll(ctx, schedule.DepositOwner(id), schedule.KindDepositInterest); err != nil {
		return domain.Unavailable("deleting payout events", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM deposit_accounts WHERE id = $1", id)
	if err != nil {
		return domain.Unavailable("deleting deposit account", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("deposit account %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return domain.Unavailable("committing deposit delete", err)
	}

	return nil
}
