package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/lobzik223/runa-ledger/internal/category"
	"github.com/lobzik223/runa-ledger/internal/domain"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
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

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	query := `
		SELECT id, user_id, name, type, created_at
		FROM categories
		WHERE id = $1
	`

	var cat category.Category

	var typeStr string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&cat.ID, &cat.UserID, &cat.Name, &typeStr, &cat.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.NotFoundf("category %s not found", id)
		}

		return nil, domain.Unavailable("getting category", err)
	}

	cat.Type = category.Type(typeStr)

	return &cat, nil
}

func (s *Store) ListByUser(ctx context.Context, userID uuid.UUID) ([]*category.Category, error) {
	query := `
		SELECT id, user_id, name, type, created_at
		FROM categories
		WHERE user_id = $1
		ORDER BY name ASC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, domain.Unavailable("listing categories", err)
	}
	defer rows.Close()

	var cats []*category.Category

	for rows.Next() {
		var cat category.Category

		var typeStr string

		if err := rows.Scan(&cat.ID, &cat.UserID, &cat.Name, &typeStr, &cat.CreatedAt); err != nil {
			return nil, domain.Unavailable("scanning category", err)
		}

		cat.Type = category.Type(typeStr)
		cats = append(cats, &cat)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("iterating category rows", err)
	}

	return cats, nil
}
