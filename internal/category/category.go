package category

import (
	"time"

	"github.com/google/uuid"
)

// Type mirrors the posting types a category can classify.
type Type string

const (
	TypeIncome  Type = "income"
	TypeExpense Type = "expense"
)

// Category classifies postings. A posting may only reference a category of
// its own type and owner.
type Category struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Name      string
	Type      Type
	CreatedAt time.Time
}
