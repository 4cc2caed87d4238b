package paymentmethod

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes how a payment method settles.
type Kind string

const (
	KindCash       Kind = "cash"
	KindDebitCard  Kind = "debit_card"
	KindCreditCard Kind = "credit_card"
)

// PaymentMethod routes transactions. A credit_card method is created by the
// engine itself when a credit-card account is created and stays permanently
// bound 1:1 to that account; expense postings through it adjust the
// account's balance.
type PaymentMethod struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	Name            string
	Kind            Kind
	CreditAccountID *uuid.UUID
	CreatedAt       time.Time
}

// Bound reports whether the method is tied to a credit account.
func (p *PaymentMethod) Bound() bool {
	return p.CreditAccountID != nil
}
