package deposit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/entitlements"
	"github.com/lobzik223/runa-ledger/internal/interest"
	"github.com/lobzik223/runa-ledger/internal/schedule"
)

//go:generate mockgen -source=service.go -destination=service_mock.go -package=deposit
type Repository interface {
	// CreateAccount inserts the account and, when ev is non-nil, the initial
	// payout event in the same transaction.
	CreateAccount(ctx context.Context, acct *Account, ev *schedule.Event) error
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]*Account, error)
	CountAccounts(ctx context.Context, userID uuid.UUID) (int, error)
	// UpdateAccount persists the account row. When reschedule is set it also
	// replaces the payout event with ev, or deletes it when ev is nil,
	// atomically with the row update.
	UpdateAccount(ctx context.Context, acct *Account, ev *schedule.Event, reschedule bool) error
	// DeleteAccount removes the account and its scheduled events atomically.
	DeleteAccount(ctx context.Context, id uuid.UUID) error
}

type Entitlements interface {
	IsPremium(ctx context.Context, userID uuid.UUID) (bool, error)
}

type Service struct {
	repo Repository
	ent  Entitlements
}

func NewService(repo Repository, ent Entitlements) *Service {
	return &Service{repo: repo, ent: ent}
}

type CreateParams struct {
	UserID         uuid.UUID
	Name           string
	Currency       string
	Principal      decimal.Decimal
	InterestRate   decimal.Decimal
	PayoutSchedule interest.PayoutSchedule
	NextPayoutAt   *time.Time
	MaturityAt     *time.Time
}

type UpdateParams struct {
	Name           *string
	Principal      *decimal.Decimal
	InterestRate   *decimal.Decimal
	PayoutSchedule *interest.PayoutSchedule
	NextPayoutAt   *time.Time
	MaturityAt     *time.Time
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Account, error) {
	currency := domain.NormalizeCurrency(params.Currency)

	if err := validateAccount(currency, params.Principal, params.InterestRate, params.PayoutSchedule); err != nil {
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
		return nil, domain.LimitReachedf("deposit account limit reached: %d of %d", count, limit)
	}

	acct := &Account{
		UserID:         params.UserID,
		Name:           params.Name,
		Currency:       currency,
		Principal:      params.Principal,
		InterestRate:   params.InterestRate,
		PayoutSchedule: params.PayoutSchedule,
		NextPayoutAt:   params.NextPayoutAt,
		MaturityAt:     params.MaturityAt,
	}

	ev := payoutEvent(acct)
	if ev != nil {
		due := ev.DueAt
		acct.NextPayoutAt = &due
	}

	if err := s.repo.CreateAccount(ctx, acct, ev); err != nil {
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
		return nil, domain.Forbiddenf("deposit account %s belongs to another user", id)
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

	changed := merge(acct, params)

	if err := validateAccount(acct.Currency, acct.Principal, acct.InterestRate, acct.PayoutSchedule); err != nil {
		return nil, err
	}

	var ev *schedule.Event
	if changed {
		ev = payoutEvent(acct)
		if ev != nil {
			due := ev.DueAt
			acct.NextPayoutAt = &due
		}
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

// payoutEvent builds the next interest-payout reminder, or nil when the
// deposit pays at maturity and no maturity date is known yet.
func payoutEvent(acct *Account) *schedule.Event {
	var dueAt time.Time

	if acct.PayoutSchedule == interest.PayoutAtMaturity {
		if acct.MaturityAt == nil {
			return nil
		}

		dueAt = *acct.MaturityAt
	} else if acct.NextPayoutAt != nil {
		dueAt = *acct.NextPayoutAt
	} else {
		dueAt = interest.NextPayoutDate(time.Now(), acct.PayoutSchedule)
	}

	return &schedule.Event{
		Kind:     schedule.KindDepositInterest,
		DueAt:    dueAt,
		Amount:   interest.DepositInterest(acct.Principal, acct.InterestRate),
		Currency: acct.Currency,
		Status:   schedule.StatusScheduled,
	}
}

// merge applies update params and reports whether any field driving the
// payout schedule changed.
func merge(acct *Account, params UpdateParams) bool {
	changed := false

	if params.Principal != nil && !params.Principal.Equal(acct.Principal) {
		acct.Principal = *params.Principal
		changed = true
	}

	if params.InterestRate != nil && !params.InterestRate.Equal(acct.InterestRate) {
		acct.InterestRate = *params.InterestRate
		changed = true
	}

	if params.PayoutSchedule != nil && *params.PayoutSchedule != acct.PayoutSchedule {
		acct.PayoutSchedule = *params.PayoutSchedule
		changed = true
	}

	if params.NextPayoutAt != nil && (acct.NextPayoutAt == nil || !params.NextPayoutAt.Equal(*acct.NextPayoutAt)) {
		acct.NextPayoutAt = params.NextPayoutAt
		changed = true
	}

	if params.MaturityAt != nil && (acct.MaturityAt == nil || !params.MaturityAt.Equal(*acct.MaturityAt)) {
		acct.MaturityAt = params.MaturityAt
		changed = true
	}

	if params.Name != nil {
		acct.Name = *params.Name
	}

	return changed
}

func validateAccount(currency string, principal, rate decimal.Decimal, sched interest.PayoutSchedule) error {
	if !domain.ValidCurrency(currency) {
		return domain.InvalidStatef("unknown currency %q", currency)
	}

	if principal.Sign() < 0 {
		return domain.InvalidStatef("principal must not be negative, got %s", principal)
	}

	if rate.Sign() < 0 || rate.GreaterThan(decimal.NewFromInt(100)) {
		return domain.InvalidStatef("interest rate must be between 0 and 100, got %s", rate)
	}

	switch sched {
	case interest.PayoutMonthly, interest.PayoutQuarterly, interest.PayoutAtMaturity:
		return nil
	default:
		return domain.InvalidStatef("unknown payout schedule %q", sched)
	}
}
