package credit_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lobzik223/runa-ledger/internal/credit"
	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/paymentmethod"
	"github.com/lobzik223/runa-ledger/internal/schedule"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func newService(t *testing.T, enforceLimit bool) (*credit.Service, *credit.MockRepository, *credit.MockEntitlements) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := credit.NewMockRepository(ctrl)
	ent := credit.NewMockEntitlements(ctrl)

	return credit.NewService(repo, ent, enforceLimit), repo, ent
}

func TestService_Create(t *testing.T) {
	userID := uuid.New()

	t.Run("LoanSchedulesPaymentEvent", func(t *testing.T) {
		svc, repo, ent := newService(t, false)

		ent.EXPECT().IsPremium(gomock.Any(), userID).Return(false, nil)
		repo.EXPECT().CountAccounts(gomock.Any(), userID).Return(0, nil)

		dueAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

		repo.EXPECT().
			CreateAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, acct *credit.Account, pm *paymentmethod.PaymentMethod, ev *schedule.Event) error {
				assert.Nil(t, pm)
				require.NotNil(t, ev)
				assert.Equal(t, schedule.KindCreditPayment, ev.Kind)
				assert.Equal(t, dueAt, ev.DueAt)
				// 100000 * 12% / 12 + 5000 minimum
				assert.True(t, ev.Amount.Equal(dec("6000")), "payment amount %s", ev.Amount)

				acct.ID = uuid.New()
				return nil
			})

		acct, err := svc.Create(context.Background(), credit.CreateParams{
			UserID:         userID,
			Name:           "Car loan",
			Kind:           credit.KindLoan,
			Currency:       "RUB",
			CurrentBalance: dec("100000"),
			InterestRate:   dec("12"),
			MinimumPayment: decPtr("5000"),
			NextPaymentAt:  timePtr(dueAt),
		})

		require.NoError(t, err)
		assert.True(t, acct.InitialBalance.Equal(dec("100000")))
	})

	t.Run("LoanDefaultsNextPaymentToNow", func(t *testing.T) {
		svc, repo, ent := newService(t, false)

		ent.EXPECT().IsPremium(gomock.Any(), userID).Return(false, nil)
		repo.EXPECT().CountAccounts(gomock.Any(), userID).Return(0, nil)

		before := time.Now()

		repo.EXPECT().
			CreateAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, acct *credit.Account, _ *paymentmethod.PaymentMethod, ev *schedule.Event) error {
				require.NotNil(t, ev)
				require.NotNil(t, acct.NextPaymentAt)
				assert.False(t, ev.DueAt.Before(before))
				return nil
			})

		_, err := svc.Create(context.Background(), credit.CreateParams{
			UserID:         userID,
			Name:           "Loan",
			Kind:           credit.KindLoan,
			CurrentBalance: dec("1000"),
			InterestRate:   dec("10"),
		})
		require.NoError(t, err)
	})

	t.Run("ZeroRateLoanHasNoEvent", func(t *testing.T) {
		svc, repo, ent := newService(t, false)

		ent.EXPECT().IsPremium(gomock.Any(), userID).Return(false, nil)
		repo.EXPECT().CountAccounts(gomock.Any(), userID).Return(0, nil)

		repo.EXPECT().
			CreateAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *credit.Account, pm *paymentmethod.PaymentMethod, ev *schedule.Event) error {
				assert.Nil(t, pm)
				assert.Nil(t, ev)
				return nil
			})

		_, err := svc.Create(context.Background(), credit.CreateParams{
			UserID:         userID,
			Name:           "Interest-free loan",
			Kind:           credit.KindLoan,
			CurrentBalance: dec("5000"),
			InterestRate:   dec("0"),
		})
		require.NoError(t, err)
	})

	t.Run("CreditCardCreatesBoundMethod", func(t *testing.T) {
		svc, repo, ent := newService(t, false)

		ent.EXPECT().IsPremium(gomock.Any(), userID).Return(true, nil)
		repo.EXPECT().CountAccounts(gomock.Any(), userID).Return(5, nil)

		repo.EXPECT().
			CreateAccount(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *credit.Account, pm *paymentmethod.PaymentMethod, ev *schedule.Event) error {
				require.NotNil(t, pm)
				assert.Equal(t, paymentmethod.KindCreditCard, pm.Kind)
				assert.Equal(t, userID, pm.UserID)
				assert.Nil(t, ev)
				return nil
			})

		_, err := svc.Create(context.Background(), credit.CreateParams{
			UserID:         userID,
			Name:           "Gold card",
			Kind:           credit.KindCreditCard,
			CurrentBalance: dec("5000"),
			CreditLimit:    decPtr("10000"),
			InterestRate:   dec("24"),
		})
		require.NoError(t, err)
	})

	t.Run("CardOverLimitRejected", func(t *testing.T) {
		svc, _, _ := newService(t, false)

		_, err := svc.Create(context.Background(), credit.CreateParams{
			UserID:         userID,
			Name:           "Card",
			Kind:           credit.KindCreditCard,
			CurrentBalance: dec("11000"),
			CreditLimit:    decPtr("10000"),
			InterestRate:   dec("24"),
		})

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidState))
	})

	t.Run("CardWithoutLimitRejected", func(t *testing.T) {
		svc, _, _ := newService(t, false)

		_, err := svc.Create(context.Background(), credit.CreateParams{
			UserID:         userID,
			Name:           "Card",
			Kind:           credit.KindCreditCard,
			CurrentBalance: dec("0"),
			InterestRate:   dec("24"),
		})

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidState))
	})

	t.Run("FreeTierLimitReached", func(t *testing.T) {
		svc, repo, ent := newService(t, false)

		ent.EXPECT().IsPremium(gomock.Any(), userID).Return(false, nil)
		repo.EXPECT().CountAccounts(gomock.Any(), userID).Return(2, nil)

		_, err := svc.Create(context.Background(), credit.CreateParams{
			UserID:         userID,
			Name:           "Loan",
			Kind:           credit.KindLoan,
			CurrentBalance: dec("1000"),
			InterestRate:   dec("10"),
		})

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindLimitReached))
	})
}

func loanAccount(id, userID uuid.UUID) *credit.Account {
	next := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	return &credit.Account{
		ID:             id,
		UserID:         userID,
		Name:           "Car loan",
		Kind:           credit.KindLoan,
		Currency:       "RUB",
		CurrentBalance: dec("100000"),
		InitialBalance: dec("100000"),
		InterestRate:   dec("12"),
		NextPaymentAt:  &next,
	}
}

func TestService_Update(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()

	t.Run("BalanceChangeReschedules", func(t *testing.T) {
		svc, repo, _ := newService(t, false)

		repo.EXPECT().GetAccount(gomock.Any(), id).Return(loanAccount(id, userID), nil)
		repo.EXPECT().
			UpdateAccount(gomock.Any(), gomock.Any(), gomock.Any(), true).
			DoAndReturn(func(_ context.Context, acct *credit.Account, ev *schedule.Event, _ bool) error {
				require.NotNil(t, ev)
				// 50000 * 12% / 12
				assert.True(t, ev.Amount.Equal(dec("500")), "payment amount %s", ev.Amount)
				assert.True(t, acct.CurrentBalance.Equal(dec("50000")))
				return nil
			})

		_, err := svc.Update(context.Background(), id, userID, credit.UpdateParams{
			CurrentBalance: decPtr("50000"),
		})
		require.NoError(t, err)
	})

	t.Run("IdenticalValuesDoNotReschedule", func(t *testing.T) {
		svc, repo, _ := newService(t, false)

		acct := loanAccount(id, userID)
		repo.EXPECT().GetAccount(gomock.Any(), id).Return(acct, nil)
		repo.EXPECT().
			UpdateAccount(gomock.Any(), gomock.Any(), gomock.Nil(), false).
			Return(nil)

		_, err := svc.Update(context.Background(), id, userID, credit.UpdateParams{
			CurrentBalance: decPtr("100000"),
			InterestRate:   decPtr("12"),
			NextPaymentAt:  acct.NextPaymentAt,
		})
		require.NoError(t, err)
	})

	t.Run("RateDroppedToZeroDeletesEvent", func(t *testing.T) {
		svc, repo, _ := newService(t, false)

		repo.EXPECT().GetAccount(gomock.Any(), id).Return(loanAccount(id, userID), nil)
		repo.EXPECT().
			UpdateAccount(gomock.Any(), gomock.Any(), gomock.Nil(), true).
			Return(nil)

		_, err := svc.Update(context.Background(), id, userID, credit.UpdateParams{
			InterestRate: decPtr("0"),
		})
		require.NoError(t, err)
	})

	t.Run("MergedCardLimitValidated", func(t *testing.T) {
		svc, repo, _ := newService(t, false)

		card := &credit.Account{
			ID:             id,
			UserID:         userID,
			Name:           "Card",
			Kind:           credit.KindCreditCard,
			Currency:       "RUB",
			CurrentBalance: dec("5000"),
			CreditLimit:    decPtr("10000"),
			InterestRate:   dec("24"),
		}
		repo.EXPECT().GetAccount(gomock.Any(), id).Return(card, nil)

		_, err := svc.Update(context.Background(), id, userID, credit.UpdateParams{
			CurrentBalance: decPtr("12000"),
		})

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidState))
	})

	t.Run("ForbiddenForOtherUser", func(t *testing.T) {
		svc, repo, _ := newService(t, false)

		repo.EXPECT().GetAccount(gomock.Any(), id).Return(loanAccount(id, uuid.New()), nil)

		_, err := svc.Update(context.Background(), id, userID, credit.UpdateParams{
			CurrentBalance: decPtr("1"),
		})

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindForbidden))
	})
}

func TestService_Remove(t *testing.T) {
	id := uuid.New()
	userID := uuid.New()

	t.Run("Success", func(t *testing.T) {
		svc, repo, _ := newService(t, false)

		repo.EXPECT().GetAccount(gomock.Any(), id).Return(loanAccount(id, userID), nil)
		repo.EXPECT().DeleteAccount(gomock.Any(), id).Return(nil)

		require.NoError(t, svc.Remove(context.Background(), id, userID))
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, repo, _ := newService(t, false)

		repo.EXPECT().GetAccount(gomock.Any(), id).Return(nil, domain.NotFoundf("credit account %s not found", id))

		err := svc.Remove(context.Background(), id, userID)
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})
}

func TestService_UpdateDebt(t *testing.T) {
	id := uuid.New()

	t.Run("PassesPolicyFlag", func(t *testing.T) {
		svc, repo, _ := newService(t, true)

		repo.EXPECT().
			AdjustBalance(gomock.Any(), id, dec("250"), true).
			Return(dec("1250"), nil)

		balance, err := svc.UpdateDebt(context.Background(), id, dec("250"))
		require.NoError(t, err)
		assert.True(t, balance.Equal(dec("1250")))
	})

	t.Run("NegativeResultRejected", func(t *testing.T) {
		svc, repo, _ := newService(t, false)

		repo.EXPECT().
			AdjustBalance(gomock.Any(), id, dec("-500"), false).
			Return(decimal.Zero, domain.InvalidStatef("balance would go negative"))

		_, err := svc.UpdateDebt(context.Background(), id, dec("-500"))
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidState))
	})
}
