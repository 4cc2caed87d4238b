package credit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/entitlements"
	"github.com/lobzik223/runa-ledger/internal/interest"
	"github.com/lobzik223/runa-ledger/internal/paymentmethod"
	"github.com/lobzik223/runa-ledger/internal/schedule"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=credit
type Repository interface {
	// CreateAccount inserts the account and, in the same transaction, the
	// bound payment method (when non-nil) and the initial scheduled event
	// (when non-nil). The store fills in the owner references once the
	// account id is known.
	CreateAccount(ctx context.Context, acct *Account, pm *paymentmethod.PaymentMethod, ev *schedule.Event) error
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]*Account, error)
	CountAccounts(ctx context.Context, userID uuid.UUID) (int, error)
	// UpdateAccount persists the account row. When reschedule is set it also
	// replaces the scheduled payment event with ev, or deletes it when ev is
	// nil, atomically with the row update.
	UpdateAccount(ctx context.Context, acct *Account, ev *schedule.Event, reschedule bool) error
	// DeleteAccount removes the account and its scheduled events atomically.
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	// AdjustBalance applies delta to the account balance under a row lock,
	// rejecting results below zero and, when enforceLimit is set, results
	// above the credit limit.
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal, enforceLimit bool) (decimal.Decimal, error)
}

type Entitlements interface {
	IsPremium(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Service struct {
	repo Repository
	ent  Entitlements

	// enforceLimitOnSpend extends the credit-limit check to the spending
	// path (AdjustBalance). Off by default: account create/update validate
	// the limit, spending only guards against negative balances.
	enforceLimitOnSpend bool
}

func NewService(repo Repository, ent Entitlements, enforceLimitOnSpend bool) *Service {
	return &Service{repo: repo, ent: ent, enforceLimitOnSpend: enforceLimitOnSpend}
}

type CreateParams struct {
	UserID         uuid.UUID
	Name           string
	Kind           Kind
	Currency       string
	CurrentBalance decimal.Decimal
	CreditLimit    *decimal.Decimal
	InterestRate   decimal.Decimal
	MinimumPayment *decimal.Decimal
	BillingDay     *int
	PaymentDay     *int
	NextPaymentAt  *time.Time
	OpenedAt       *time.Time
}

type UpdateParams struct {
	Name           *string
	CurrentBalance *decimal.Decimal
	CreditLimit    *decimal.Decimal
	InterestRate   *decimal.Decimal
	MinimumPayment *decimal.Decimal
	BillingDay     *int
	PaymentDay     *int
	NextPaymentAt  *time.Time
	ClosedAt       *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Account, error) {
	currency := domain.NormalizeCurrency(params.Currency)

	if err := validateAccount(params.Kind, currency, params.CurrentBalance, params.InterestRate, params.CreditLimit); err != nil {
		return nil, err
	}

	premium, err := s.ent.IsPremium(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountAccounts(ctx, params.UserID)
	if err != nil {
		return nil, err
	}

	limit := entitlements.AccountLimit(premium)
	if count >= limit {
		return nil, domain.LimitReachedf("credit account limit reached: %d of %d", count, limit)
	}

	acct := &Account{
		UserID:         params.UserID,
		Name:           params.Name,
		Kind:           params.Kind,
		Currency:       currency,
		CurrentBalance: params.CurrentBalance,
		InitialBalance: params.CurrentBalance,
		CreditLimit:    params.CreditLimit,
		InterestRate:   params.InterestRate,
		MinimumPayment: params.MinimumPayment,
		BillingDay:     params.BillingDay,
		PaymentDay:     params.PaymentDay,
		NextPaymentAt:  params.NextPaymentAt,
		OpenedAt:       params.OpenedAt,
	}

	var pm *paymentmethod.PaymentMethod
	if acct.Kind == KindCreditCard {
		pm = &paymentmethod.PaymentMethod{
			UserID: acct.UserID,
			Name:   acct.Name,
			Kind:   paymentmethod.KindCreditCard,
		}
	}

	var ev *schedule.Event

	if acct.Kind == KindLoan && acct.InterestRate.Sign() > 0 {
		dueAt := time.Now()
		if acct.NextPaymentAt != nil {
			dueAt = *acct.NextPaymentAt
		} else {
			acct.NextPaymentAt = &dueAt
		}

		ev = paymentEvent(acct, dueAt)
	}

	if err := s.repo.CreateAccount(ctx, acct, pm, ev); err != nil {
		return nil, err
	}

	return acct, nil
}

func (s *Service) Get(ctx context.Context, id, userID uuid.UUID) (*Account, error) {
	acct, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	if acct.UserID != userID {
		return nil, domain.Forbiddenf("credit account %s belongs to another user", id)
	}

	return acct, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*Account, error) {
	return s.repo.ListAccounts(ctx, userID)
}

func (s *Service) Update(ctx context.Context, id, userID uuid.UUID, params UpdateParams) (*Account, error) {
	acct, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	changed := mergeTracked(acct, params)
	mergeRest(acct, params)

	if err := validateAccount(acct.Kind, acct.Currency, acct.CurrentBalance, acct.InterestRate, acct.CreditLimit); err != nil {
		return nil, err
	}

	var ev *schedule.Event

	if changed && acct.Kind == KindLoan && acct.InterestRate.Sign() > 0 && acct.NextPaymentAt != nil {
		ev = paymentEvent(acct, *acct.NextPaymentAt)
	}

	if err := s.repo.UpdateAccount(ctx, acct, ev, changed); err != nil {
		return nil, err
	}

	return acct, nil
}

func (s *Service) Remove(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.Get(ctx, id, userID); err != nil {
		return err
	}

	return s.repo.DeleteAccount(ctx, id)
}

// UpdateDebt applies delta to the account's outstanding balance. This is the
// synchronization primitive the transaction ledger drives; the store
// serializes concurrent deltas against the same account with a row lock.
func (s *Service) UpdateDebt(ctx context.Context, accountID uuid.UUID, delta decimal.Decimal) (decimal.Decimal, error) {
	return s.repo.AdjustBalance(ctx, accountID, delta, s.enforceLimitOnSpend)
}

// paymentEvent builds the single scheduled payment reminder for a loan.
func paymentEvent(acct *Account, dueAt time.Time) *schedule.Event {
	minimum := decimal.Zero
	if acct.MinimumPayment != nil {
		minimum = *acct.MinimumPayment
	}

	return &schedule.Event{
		Kind:     schedule.KindCreditPayment,
		DueAt:    dueAt,
		Amount:   interest.LoanPayment(acct.CurrentBalance, acct.InterestRate, minimum),
		Currency: acct.Currency,
		Status:   schedule.StatusScheduled,
	}
}

// mergeTracked applies the fields whose change triggers rescheduling and
// reports whether any of them actually changed.
func mergeTracked(acct *Account, params UpdateParams) bool {
	changed := false

	if params.CurrentBalance != nil && !params.CurrentBalance.Equal(acct.CurrentBalance) {
		acct.CurrentBalance = *params.CurrentBalance
		changed = true
	}

	if params.InterestRate != nil && !params.InterestRate.Equal(acct.InterestRate) {
		acct.InterestRate = *params.InterestRate
		changed = true
	}

	if params.NextPaymentAt != nil && (acct.NextPaymentAt == nil || !params.NextPaymentAt.Equal(*acct.NextPaymentAt)) {
		acct.NextPaymentAt = params.NextPaymentAt
		changed = true
	}

	if params.MinimumPayment != nil && (acct.MinimumPayment == nil || !params.MinimumPayment.Equal(*acct.MinimumPayment)) {
		acct.MinimumPayment = params.MinimumPayment
		changed = true
	}

	return changed
}

func mergeRest(acct *Account, params UpdateParams) {
	if params.Name != nil {
		acct.Name = *params.Name
	}

	if params.CreditLimit != nil {
		acct.CreditLimit = params.CreditLimit
	}

	if params.BillingDay != nil {
		acct.BillingDay = params.BillingDay
	}

	if params.PaymentDay != nil {
		acct.PaymentDay = params.PaymentDay
	}

	if params.ClosedAt != nil {
		acct.ClosedAt = params.ClosedAt
	}
}

func validateAccount(kind Kind, currency string, balance, rate decimal.Decimal, creditLimit *decimal.Decimal) error {
	if kind != KindLoan && kind != KindCreditCard {
		return domain.InvalidStatef("unknown credit account kind %q", kind)
	}

	if !domain.ValidCurrency(currency) {
		return domain.InvalidStatef("unknown currency %q", currency)
	}

	if balance.Sign() < 0 {
		return domain.InvalidStatef("balance must not be negative, got %s", balance)
	}

	if rate.Sign() < 0 || rate.GreaterThan(decimal.NewFromInt(100)) {
		return domain.InvalidStatef("interest rate must be between 0 and 100, got %s", rate)
	}

	if kind == KindCreditCard {
		if creditLimit == nil {
			return domain.InvalidStatef("credit cards require a credit limit")
		}

		if balance.GreaterThan(*creditLimit) {
			return domain.InvalidStatef("balance %s exceeds credit limit %s", balance, creditLimit)
		}
	}

	return nil
}
