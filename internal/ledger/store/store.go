package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lobzik223/runa-ledger/internal/category"
	categorystore "github.com/lobzik223/runa-ledger/internal/category/store"
	creditstore "github.com/lobzik223/runa-ledger/internal/credit/store"
	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/ledger"
	"github.com/lobzik223/runa-ledger/internal/paymentmethod"
	pmstore "github.com/lobzik223/runa-ledger/internal/paymentmethod/store"
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

const selectTransactionColumns = `
	id, user_id, type, amount, currency, description, occurred_at,
	category_id, payment_method_id, created_at, updated_at
`

func scanTransaction(s scanner) (*ledger.Transaction, error) {
	var t ledger.Transaction

	var typeStr string

	if err := s.Scan(
		&t.ID, &t.UserID, &typeStr, &t.Amount, &t.Currency, &t.Description,
		&t.OccurredAt, &t.CategoryID, &t.PaymentMethodID,
		&t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Type = ledger.Type(typeStr)

	return &t, nil
}

func (s *Store) GetTransaction(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + ` FROM transactions WHERE id = $1`

	t, err := scanTransaction(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NotFoundf("transaction %s not found", id)
		}

		return nil, domain.Unavailable("getting transaction", err)
	}

	return t, nil
}

func (s *Store) ListTransactions(ctx context.Context, filter ledger.ListFilter) ([]*ledger.Transaction, error) {
	query := `SELECT ` + selectTransactionColumns + `
		FROM transactions
		WHERE user_id = $1`

	args := []any{filter.UserID}
	argIdx := 2

	if filter.Type != nil {
		query += fmt.Sprintf(" AND type = $%d", argIdx)

		args = append(args, *filter.Type)
		argIdx++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND occurred_at >= $%d", argIdx)

		args = append(args, *filter.StartDate)
		argIdx++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND occurred_at <= $%d", argIdx)

		args = append(args, *filter.EndDate)
		argIdx++
	}

	query += " ORDER BY occurred_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, domain.Unavailable("listing transactions", err)
	}
	defer rows.Close()

	var postings []*ledger.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, domain.Unavailable("scanning transaction", err)
		}

		postings = append(postings, t)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("iterating transaction rows", err)
	}

	return postings, nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	return categorystore.New(s.db).Get(ctx, id)
}

func (s *Store) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*paymentmethod.PaymentMethod, error) {
	return pmstore.New(s.db).Get(ctx, id)
}

// Begin opens the atomic unit a posting mutation runs in.
func (s *Store) Begin(ctx context.Context) (ledger.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, domain.Unavailable("beginning ledger unit", err)
	}

	return &ledgerTx{tx: tx}, nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (l *ledgerTx) Commit() error   { return l.tx.Commit() }
func (l *ledgerTx) Rollback() error { return l.tx.Rollback() }

func (l *ledgerTx) CreateTransaction(ctx context.Context, t *ledger.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, type, amount, currency, description, occurred_at, category_id, payment_method_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at
	`

	err := l.tx.QueryRowContext(ctx, query,
		t.UserID, t.Type, t.Amount, t.Currency, t.Description,
		t.OccurredAt, t.CategoryID, t.PaymentMethodID,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return domain.Unavailable("creating transaction", err)
	}

	return nil
}

func (l *ledgerTx) UpdateTransaction(ctx context.Context, t *ledger.Transaction) error {
	query := `
		UPDATE transactions
		SET type = $1, amount = $2, currency = $3, description = $4,
			occurred_at = $5, category_id = $6, payment_method_id = $7, updated_at = NOW()
		WHERE id = $8
	`

	res, err := l.tx.ExecContext(ctx, query,
		t.Type, t.Amount, t.Currency, t.Description,
		t.OccurredAt, t.CategoryID, t.PaymentMethodID,
		t.ID,
	)
	if err != nil {
		return domain.Unavailable("updating transaction", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("transaction %s not found", t.ID)
	}

	return nil
}

func (l *ledgerTx) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	res, err := l.tx.ExecContext(ctx, "DELETE FROM transactions WHERE id = $1", id)
	if err != nil {
		return domain.Unavailable("deleting transaction", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.NotFoundf("transaction %s not found", id)
	}

	return nil
}

func (l *ledgerTx) AdjustCreditBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal, enforceLimit bool) (decimal.Decimal, error) {
	return creditstore.AdjustBalanceTx(ctx, l.tx, accountID, delta, enforceLimit)
}
