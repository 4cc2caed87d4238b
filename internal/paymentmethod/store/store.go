package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/paymentmethod"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx; account creation inserts
// the bound method inside the credit manager's transaction.
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

func (s *Store) Create(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	query := `
		INSERT INTO payment_methods (user_id, name, kind, credit_account_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		pm.UserID,
		pm.Name,
		pm.Kind,
		pm.CreditAccountID,
	).Scan(&pm.ID, &pm.CreatedAt)
	if err != nil {
		return domain.Unavailable("creating payment method", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*paymentmethod.PaymentMethod, error) {
	query := `
		SELECT id, user_id, name, kind, credit_account_id, created_at
		FROM payment_methods
		WHERE id = $1
	`

	var pm paymentmethod.PaymentMethod

	var kindStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&pm.ID, &pm.UserID, &pm.Name, &kindStr, &pm.CreditAccountID, &pm.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NotFoundf("payment method %s not found", id)
		}

		return nil, domain.Unavailable("getting payment method", err)
	}

	pm.Kind = paymentmethod.Kind(kindStr)

	return &pm, nil
}

func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]*paymentmethod.PaymentMethod, error) {
	query := `
		SELECT id, user_id, name, kind, credit_account_id, created_at
		FROM payment_methods
		WHERE user_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, domain.Unavailable("listing payment methods", err)
	}
	defer rows.Close()

	var methods []*paymentmethod.PaymentMethod

	for rows.Next() {
		var pm paymentmethod.PaymentMethod

		var kindStr string

		if err := rows.Scan(&pm.ID, &pm.UserID, &pm.Name, &kindStr, &pm.CreditAccountID, &pm.CreatedAt); err != nil {
			return nil, domain.Unavailable("scanning payment method", err)
		}

		pm.Kind = paymentmethod.Kind(kindStr)
		methods = append(methods, &pm)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("iterating payment method rows", err)
	}

	return methods, nil
}
