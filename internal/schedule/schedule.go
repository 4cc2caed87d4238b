package schedule

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies what a scheduled event reminds about.
type Kind string

const (
	KindCreditPayment    Kind = "credit_payment"
	KindDepositInterest  Kind = "deposit_interest"
	KindGoalContribution Kind = "goal_contribution"
)

// Status is the lifecycle state of a scheduled event. This engine only ever
// writes scheduled rows; the notification collaborator owns the transition
// to notified.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusNotified  Status = "notified"
)

// Owner points at exactly one parent account.
type Owner struct {
	CreditAccountID  *uuid.UUID
	DepositAccountID *uuid.UUID
}

func CreditOwner(id uuid.UUID) Owner {
	return Owner{CreditAccountID: &id}
}

func DepositOwner(id uuid.UUID) Owner {
	return Owner{DepositAccountID: &id}
}

// Event is a single forward-looking reminder: the next due payment or payout
// for one account. At most one scheduled event exists per (owner, kind).
type Event struct {
	ID             uuid.UUID
	Kind           Kind
	Owner          Owner
	DueAt          time.Time
	Amount         decimal.Decimal
	Currency       string
	Status         Status
	LastNotifiedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}
