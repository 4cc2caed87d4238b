package store

import (
	"context"
	"database/sql"

	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/reconcile"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// ListDrift derives each credit account's debt from its initial balance plus
// the expense postings routed through its bound payment method, and returns
// the accounts where the recorded balance disagrees.
func (s *Store) ListDrift(ctx context.Context) ([]*reconcile.Drift, error) {
	query := `
		SELECT ca.id, ca.user_id, ca.name, ca.current_balance,
			ca.initial_balance + COALESCE(spent.total, 0) AS derived
		FROM credit_accounts ca
		LEFT JOIN (
			SELECT pm.credit_account_id, SUM(t.amount) AS total
			FROM transactions t
			JOIN payment_methods pm ON pm.id = t.payment_method_id
			WHERE t.type = 'expense' AND pm.credit_account_id IS NOT NULL
			GROUP BY pm.credit_account_id
		) spent ON spent.credit_account_id = ca.id
		WHERE ca.current_balance <> ca.initial_balance + COALESCE(spent.total, 0)
		ORDER BY ca.created_at
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, domain.Unavailable("listing balance drift", err)
	}
	defer rows.Close()

	var drifts []*reconcile.Drift

	for rows.Next() {
		var d reconcile.Drift

		if err := rows.Scan(&d.AccountID, &d.UserID, &d.AccountName, &d.Recorded, &d.Derived); err != nil {
			return nil, domain.Unavailable("scanning balance drift", err)
		}

		drifts = append(drifts, &d)
	}

	if err := rows.Err(); err != nil {
		return nil, domain.Unavailable("iterating drift rows", err)
	}

	return drifts, nil
}
