package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lobzik223/runa-ledger/internal/credit"
	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/paymentmethod"
	pmstore "github.com/lobzik223/runa-ledger/internal/paymentmethod/store"
	"github.com/lobzik223/runa-ledger/internal/schedule"
	schedulestore "github.com/lobzik223/runa-ledger/internal/schedule/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const selectAccountColumns = `
	id, user_id, name, kind, currency, current_balance, initial_balance,
	credit_limit, interest_rate, minimum_payment, billing_day, payment_day,
	next_payment_at, opened_at, closed_at, created_at, updated_at
`

func scanAccount(s scanner) (*credit.Account, error) {
	var acct credit.Account

	var kindStr string

	if err := s.Scan(
		&acct.ID, &acct.UserID, &acct.Name, &kindStr, &acct.Currency,
		&acct.CurrentBalance, &acct.InitialBalance,
		&acct.CreditLimit, &acct.InterestRate, &acct.MinimumPayment,
		&acct.BillingDay, &acct.PaymentDay,
		&acct.NextPaymentAt, &acct.OpenedAt, &acct.ClosedAt,
		&acct.CreatedAt, &acct.UpdatedAt,
	); err != nil {
		return nil, err
	}

	acct.Kind = credit.Kind(kindStr)

	return &acct, nil
}

// CreateAccount inserts the account row plus, in the same transaction, the
// bound payment method (credit cards) and the initial scheduled payment
// event (loans with positive APR).
func (s *Store) CreateAccount(ctx context.Context, acct *credit.Account, pm *paymentmethod.PaymentMethod, ev *schedule.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Unavailable("beginning account create", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO credit_accounts (
			user_id, name, kind, currency, current_balance, initial_balance,
			credit_limit, interest_rate, minimum_payment, billing_day, payment_day,
			next_payment_at, opened_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, created_at
	`

	err = tx.QueryRowContext(ctx, query,
		acct.UserID, acct.Name, acct.Kind, acct.Currency,
		acct.CurrentBalance, acct.InitialBalance,
		acct.CreditLimit, acct.InterestRate, acct.MinimumPayment,
		acct.BillingDay, acct.PaymentDay,
		acct.NextPaymentAt, acct.OpenedAt,
	).Scan(&acct.ID, &acct.CreatedAt)
	if err != nil {
		return domain.Unavailable("creating credit account", err)
	}

	if pm != nil {
		id := acct.ID
		pm.CreditAccountID = &id

		if err := pmstore.New(tx).Create(ctx, pm); err != nil {
			return err
		}
	}

	if ev != nil {
		ev.Owner = schedule.CreditOwner(acct.ID)

		if err := schedulestore.New(tx).Replace(ctx, ev.Owner, ev.Kind, ev.DueAt, ev.Amount, ev.Currency); err != nil {
			return domain.Unavailable("scheduling payment event", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Unavailable("committing account create", err)
	}

	return nil
}

func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (*credit.Account, error) {
	query := `SELECT ` + selectAccountColumns + ` FROM credit_accounts WHERE id = $1`

	acct, err := scanAccount(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NotFoundf("credit account %s not found", id)
		}

		return nil, domain.Unavailable("getting credit account", err)
	}

	return acct, nil
}

func (s *Store) ListAccounts(ctx context.Context, userID uuid.UUID) ([]*credit.Account, error) {
	query := `SELECT ` + selectAccountColumns + `
		FROM credit_accounts
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, domain.Unavailable("listing credit accounts", err)
	}
	defer rows.Close()

	var accts []*credit.Account

	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, domain.Unavailable("scanning credit account", err)
		}

		accts = append(accts, acct)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("iterating credit account rows", err)
	}

	return accts, nil
}

func (s *Store) CountAccounts(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM credit_accounts WHERE user_id = $1", userID).Scan(&count)
	if err != nil {
		return 0, domain.Unavailable("counting credit accounts", err)
	}

	return count, nil
}

// UpdateAccount persists the merged account row. When reschedule is set the
// scheduled payment event is replaced with ev, or deleted when the account
// lost eligibility (ev nil), in the same transaction as the row update.
func (s *Store) UpdateAccount(ctx context.Context, acct *credit.Account, ev *schedule.Event, reschedule bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Unavailable("beginning account update", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE credit_accounts
		SET name = $1, currency = $2, current_balance = $3, credit_limit = $4,
			interest_rate = $5, minimum_payment = $6, billing_day = $7,
			payment_day = $8, next_payment_at = $9, closed_at = $10, updated_at = NOW()
		WHERE id = $11
	`

	res, err := tx.ExecContext(ctx, query,
		acct.Name, acct.Currency, acct.CurrentBalance, acct.CreditLimit,
		acct.InterestRate, acct.MinimumPayment, acct.BillingDay,
		acct.PaymentDay, acct.NextPaymentAt, acct.ClosedAt,
		acct.ID,
	)
	if err != nil {
		return domain.Unavailable("updating credit account", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("credit account %s not found", acct.ID)
	}

	if reschedule {
		owner := schedule.CreditOwner(acct.ID)
		events := schedulestore.New(tx)

		if ev != nil {
			err = events.Replace(ctx, owner, ev.Kind, ev.DueAt, ev.Amount, ev.Currency)
		} else {
			err = events.DeleteAll(ctx, owner, schedule.KindCreditPayment)
		}

		if err != nil {
			return domain.Unavailable("rescheduling payment event", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Unavailable("committing account update", err)
	}

	return nil
}

// DeleteAccount removes the scheduled events, then the account. The bound
// payment method goes with the account via its foreign key cascade.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Unavailable("beginning account delete", err)
	}
	defer tx.Rollback()

	if err := schedulestore.New(tx).DeleteAll(ctx, schedule.CreditOwner(id), schedule.KindCreditPayment); err != nil {
		return domain.Unavailable("deleting payment events", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM credit_accounts WHERE id = $1", id)
	if err != nil {
		return domain.Unavailable("deleting credit account", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("credit account %s not found", id)
	}

	if err := tx.Commit(); err != nil {
		return domain.Unavailable("committing account delete", err)
	}

	return nil
}

// AdjustBalance applies delta to the account's balance inside its own
// transaction. See AdjustBalanceTx for the locking contract.
func (s *Store) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal, enforceLimit bool) (decimal.Decimal, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, domain.Unavailable("beginning balance adjust", err)
	}
	defer tx.Rollback()

	balance, err := AdjustBalanceTx(ctx, tx, accountID, delta, enforceLimit)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(); err != nil {
		return decimal.Zero, domain.Unavailable("committing balance adjust", err)
	}

	return balance, nil
}

// AdjustBalanceTx is the debt-synchronization primitive. It must run inside
// a transaction: the SELECT ... FOR UPDATE serializes concurrent deltas
// against the same account, so a read-modify-write can never lose an update.
// The ledger store calls it from its own transaction when postings move
// credit-card debt.
func AdjustBalanceTx(ctx context.Context, q DBTX, accountID uuid.UUID, delta decimal.Decimal, enforceLimit bool) (decimal.Decimal, error) {
	var (
		balance     decimal.Decimal
		kindStr     string
		creditLimit *decimal.Decimal
	)

	err := q.QueryRowContext(ctx,
		"SELECT current_balance, kind, credit_limit FROM credit_accounts WHERE id = $1 FOR UPDATE",
		accountID,
	).Scan(&balance, &kindStr, &creditLimit)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, domain.NotFoundf("credit account %s not found", accountID)
		}

		return decimal.Zero, domain.Unavailable("locking credit account", err)
	}

	next, err := applyDelta(accountID, balance, delta, credit.Kind(kindStr), creditLimit, enforceLimit)
	if err != nil {
		return decimal.Zero, err
	}

	if _, err := q.ExecContext(ctx,
		"UPDATE credit_accounts SET current_balance = $1, updated_at = NOW() WHERE id = $2",
		next, accountID,
	); err != nil {
		return decimal.Zero, domain.Unavailable("writing adjusted balance", err)
	}

	return next, nil
}

// applyDelta computes the post-adjustment balance. A delta may never take the
// balance negative; with enforceLimit set it may not push a credit card past
// its limit either.
func applyDelta(accountID uuid.UUID, balance, delta decimal.Decimal, kind credit.Kind, creditLimit *decimal.Decimal, enforceLimit bool) (decimal.Decimal, error) {
	next := balance.Add(delta)

	if next.Sign() < 0 {
		return decimal.Zero, domain.InvalidStatef(
			"balance of account %s would go negative: current %s, delta %s", accountID, balance, delta)
	}

	if enforceLimit && kind == credit.KindCreditCard && creditLimit != nil && next.GreaterThan(*creditLimit) {
		return decimal.Zero, domain.InvalidStatef(
			"balance of account %s would exceed credit limit %s: current %s, delta %s", accountID, creditLimit, balance, delta)
	}

	return next, nil
}
