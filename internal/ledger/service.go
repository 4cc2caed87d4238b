package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lobzik223/runa-ledger/internal/category"
	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/paymentmethod"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=ledger
type Repository interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*Transaction, error)
	ListTransactions(ctx context.Context, filter ListFilter) ([]*Transaction, error)
	GetCategory(ctx context.Context, id uuid.UUID) (*category.Category, error)
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*paymentmethod.PaymentMethod, error)
	// Begin opens the atomic unit a posting mutation runs in. Every write and
	// every linked balance adjustment must go through the returned Tx so a
	// failure anywhere rolls the whole unit back.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a transaction-scoped view of the store.
type Tx interface {
	CreateTransaction(ctx context.Context, t *Transaction) error
	UpdateTransaction(ctx context.Context, t *Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error
	// AdjustCreditBalance applies delta to a credit account's debt under a
	// row lock, inside this transaction.
	AdjustCreditBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal, enforceLimit bool) (decimal.Decimal, error)
	Commit() error
	Rollback() error
}

// Service keeps the transaction ledger and linked credit-account balances
// mutually consistent. Creating, editing, or deleting an expense that routes
// through a bound payment method adjusts the linked account's debt in the
// same atomic unit as the posting itself.
type Service struct {
	repo Repository

	// enforceLimitOnSpend extends the credit-limit check to balance
	// adjustments driven by postings. See credit.Service.
	enforceLimitOnSpend bool
}

func NewService(repo Repository, enforceLimitOnSpend bool) *Service {
	return &Service{repo: repo, enforceLimitOnSpend: enforceLimitOnSpend}
}

type CreateParams struct {
	UserID          uuid.UUID
	Type            Type
	Amount          decimal.Decimal
	Currency        string
	Description     string
	OccurredAt      time.Time
	CategoryID      *uuid.UUID
	PaymentMethodID *uuid.UUID
}

type UpdateParams struct {
	Type            *Type
	Amount          *decimal.Decimal
	Description     *string
	OccurredAt      *time.Time
	CategoryID      *uuid.UUID
	PaymentMethodID *uuid.UUID
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Transaction, error) {
	currency := domain.NormalizeCurrency(params.Currency)

	if err := validatePosting(params.Type, params.Amount, currency); err != nil {
		return nil, err
	}

	if params.CategoryID != nil {
		if err := s.checkCategory(ctx, *params.CategoryID, params.UserID, params.Type); err != nil {
			return nil, err
		}
	}

	boundAccount, err := s.boundAccount(ctx, params.PaymentMethodID, params.UserID)
	if err != nil {
		return nil, err
	}

	occurredAt := params.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	posting := &Transaction{
		UserID:          params.UserID,
		Type:            params.Type,
		Amount:          params.Amount,
		Currency:        currency,
		Description:     params.Description,
		OccurredAt:      occurredAt,
		CategoryID:      params.CategoryID,
		PaymentMethodID: params.PaymentMethodID,
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.CreateTransaction(ctx, posting); err != nil {
		return nil, err
	}

	if posting.Type == TypeExpense && boundAccount != nil {
		if _, err := tx.AdjustCreditBalance(ctx, *boundAccount, posting.Amount, s.enforceLimitOnSpend); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Unavailable("committing posting create", err)
	}

	return posting, nil
}

func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Transaction, error) {
	posting, err := s.repo.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}

	if posting.UserID != userID {
		return nil, domain.Forbiddenf("transaction %s belongs to another user", id)
	}

	return posting, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Transaction, error) {
	return s.repo.ListTransactions(ctx, filter)
}

// Update edits a posting and compensates linked balances: the old effective
// delta is rolled back before the new one is applied, so shrinking an amount
// can never bounce off the non-negativity check, and reassigned payment
// methods move debt between the two accounts in one atomic unit.
func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, params UpdateParams) (*Transaction, error) {
	old, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	oldBound, err := s.boundAccount(ctx, old.PaymentMethodID, userID)
	if err != nil {
		return nil, err
	}

	updated := *old
	merge(&updated, params)

	if err := validatePosting(updated.Type, updated.Amount, updated.Currency); err != nil {
		return nil, err
	}

	if params.CategoryID != nil {
		if err := s.checkCategory(ctx, *params.CategoryID, userID, updated.Type); err != nil {
			return nil, err
		}
	}

	newBound, err := s.boundAccount(ctx, updated.PaymentMethodID, userID)
	if err != nil {
		return nil, err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := tx.UpdateTransaction(ctx, &updated); err != nil {
		return nil, err
	}

	if old.Type == TypeExpense && oldBound != nil {
		if _, err := tx.AdjustCreditBalance(ctx, *oldBound, old.Amount.Neg(), false); err != nil {
			return nil, err
		}
	}

	if updated.Type == TypeExpense && newBound != nil {
		if _, err := tx.AdjustCreditBalance(ctx, *newBound, updated.Amount, s.enforceLimitOnSpend); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, domain.Unavailable("committing posting update", err)
	}

	return &updated, nil
}

// Remove deletes a posting and rolls back the debt it had applied, if any.
func (s *Service) Remove(ctx context.Context, id, userID uuid.UUID) error {
	old, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}

	bound, err := s.boundAccount(ctx, old.PaymentMethodID, userID)
	if err != nil {
		return err
	}

	tx, err := s.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := tx.DeleteTransaction(ctx, id); err != nil {
		return err
	}

	if old.Type == TypeExpense && bound != nil {
		if _, err := tx.AdjustCreditBalance(ctx, *bound, old.Amount.Neg(), false); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Unavailable("committing posting delete", err)
	}

	return nil
}

// boundAccount resolves the credit account a payment method is bound to,
// after checking the method belongs to the user. Returns nil for unbound
// methods and nil method ids.
func (s *Service) boundAccount(ctx context.Context, methodID *uuid.UUID, userID uuid.UUID) (*uuid.UUID, error) {
	if methodID == nil {
		return nil, nil
	}

	pm, err := s.repo.GetPaymentMethod(ctx, *methodID)
	if err != nil {
		return nil, err
	}

	if pm.UserID != userID {
		return nil, domain.Forbiddenf("payment method %s belongs to another user", pm.ID)
	}

	if !pm.Bound() {
		return nil, nil
	}

	return pm.CreditAccountID, nil
}

func (s *Service) checkCategory(ctx context.Context, categoryID, userID uuid.UUID, postingType Type) error {
	cat, err := s.repo.GetCategory(ctx, categoryID)
	if err != nil {
		return err
	}

	if cat.UserID != userID {
		return domain.Forbiddenf("category %s belongs to another user", categoryID)
	}

	if string(cat.Type) != string(postingType) {
		return domain.InvalidStatef("category %q is for %s postings, not %s", cat.Name, cat.Type, postingType)
	}

	return nil
}

func merge(posting *Transaction, params UpdateParams) {
	if params.Type != nil {
		posting.Type = *params.Type
	}

	if params.Amount != nil {
		posting.Amount = *params.Amount
	}

	if params.Description != nil {
		posting.Description = *params.Description
	}

	if params.OccurredAt != nil {
		posting.OccurredAt = *params.OccurredAt
	}

	if params.CategoryID != nil {
		posting.CategoryID = params.CategoryID
	}

	if params.PaymentMethodID != nil {
		posting.PaymentMethodID = params.PaymentMethodID
	}
}

func validatePosting(t Type, amount decimal.Decimal, currency string) error {
	if t != TypeIncome && t != TypeExpense {
		return domain.InvalidStatef("unknown transaction type %q", t)
	}

	if amount.Sign() <= 0 {
		return domain.InvalidStatef("amount must be positive, got %s", amount)
	}

	if !domain.ValidCurrency(currency) {
		return domain.InvalidStatef("unknown currency %q", currency)
	}

	return nil
}
