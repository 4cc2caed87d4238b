package reconcile

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Drift is a credit account whose recorded debt disagrees with the debt
// derived from its initial balance plus the expenses routed through its bound
// payment method. Manual debt corrections show up here too, which is why the
// report is advisory and never rewrites balances.
type Drift struct {
	AccountID   uuid.UUID
	UserID      uuid.UUID
	AccountName string
	Recorded    decimal.Decimal
	Derived     decimal.Decimal
}

// Delta is how far the recorded balance sits above the derived one.
func (d Drift) Delta() decimal.Decimal {
	return d.Recorded.Sub(d.Derived)
}
