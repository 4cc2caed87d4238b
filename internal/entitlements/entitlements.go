// Package entitlements answers the single question the account managers ask
// before creating anything: is this user premium, and how many accounts does
// their tier allow.
package entitlements

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/lobzik223/runa-ledger/internal/domain"
)

const (
	FreeAccountLimit    = 2
	PremiumAccountLimit = 100
)

// AccountLimit returns the per-entity-type account cap for a tier.
func AccountLimit(premium bool) int {
	if premium {
		return PremiumAccountLimit
	}

	return FreeAccountLimit
}

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store reads the premium flag off the users table.
type Store struct {
	db DBTX
}

func New(db DBTX) *Store {
	return &Store{db: db}
}

func (s *Store) IsPremium(ctx context.Context, userID uuid.UUID) (bool, error) {
	var premium bool

	err := s.db.QueryRowContext(ctx, "SELECT premium FROM users WHERE id = $1", userID).Scan(&premium)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, domain.NotFoundf("user %s not found", userID)
		}

		return false, domain.Unavailable("checking premium tier", err)
	}

	return premium, nil
}
