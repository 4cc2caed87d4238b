package credit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind distinguishes a loan from a revolving credit card.
type Kind string

const (
	KindLoan       Kind = "loan"
	KindCreditCard Kind = "credit_card"
)

// Account represents a loan or credit card.
//
// CurrentBalance is the outstanding debt and is never negative. For credit
// cards it is validated against CreditLimit on create and update; whether the
// spending path also enforces the limit is a policy flag on the service.
type Account struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Name           string
	Kind           Kind
	Currency       string
	CurrentBalance decimal.Decimal
	InitialBalance decimal.Decimal
	CreditLimit    *decimal.Decimal // credit cards only
	InterestRate   decimal.Decimal  // APR, 0-100
	MinimumPayment *decimal.Decimal
	BillingDay     *int
	PaymentDay     *int
	NextPaymentAt  *time.Time
	OpenedAt       *time.Time
	ClosedAt       *time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
