package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Type represents the type of transaction (income or expense).
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Transaction is a ledger posting. An expense routed through a payment
// method bound to a credit account moves that account's debt by its amount;
// income never does, regardless of payment method.
type Transaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Type            Type
	Amount          decimal.Decimal
	Currency        string
	Description     string
	OccurredAt      time.Time
	CategoryID      *uuid.UUID
	PaymentMethodID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// ListFilter narrows a transaction listing.
type ListFilter struct {
	UserID    uuid.UUID
	Type      *Type
	StartDate *time.Time
	EndDate   *time.Time
}
