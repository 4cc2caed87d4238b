package deposit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lobzik223/runa-ledger/internal/interest"
)

// Account represents an interest-bearing deposit. NextPayoutAt drives the
// single scheduled interest-payout event; for at-maturity deposits the
// payout date is the maturity date itself.
type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Currency       string
	Principal      decimal.Decimal
	InterestRate   decimal.Decimal // APR, 0-100
	PayoutSchedule interest.PayoutSchedule
	NextPayoutAt   *time.Time
	MaturityAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
