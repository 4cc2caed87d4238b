package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/lobzik223/runa-ledger/internal/category"
	"github.com/lobzik223/runa-ledger/internal/domain"
	"github.com/lobzik223/runa-ledger/internal/ledger"
	"github.com/lobzik223/runa-ledger/internal/paymentmethod"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func idPtr(id uuid.UUID) *uuid.UUID {
	return &id
}

func typePtr(t ledger.Type) *ledger.Type {
	return &t
}

func newService(t *testing.T, enforceLimit bool) (*ledger.Service, *ledger.MockRepository) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := ledger.NewMockRepository(ctrl)

	return ledger.NewService(repo, enforceLimit), repo
}

func newTx(t *testing.T, repo *ledger.MockRepository) *ledger.MockTx {
	t.Helper()

	ctrl := gomock.NewController(t)
	tx := ledger.NewMockTx(ctrl)

	repo.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	tx.EXPECT().Rollback().Return(nil).AnyTimes()

	return tx
}

func boundMethod(id, userID, accountID uuid.UUID) *paymentmethod.PaymentMethod {
	return &paymentmethod.PaymentMethod{
		ID:              id,
		UserID:          userID,
		Name:            "Gold card",
		Kind:            paymentmethod.KindCreditCard,
		CreditAccountID: &accountID,
	}
}

func TestService_Create(t *testing.T) {
	userID := uuid.New()
	methodID := uuid.New()
	accountID := uuid.New()

	t.Run("BoundExpenseAdjustsDebt", func(t *testing.T) {
		svc, repo := newService(t, false)

		repo.EXPECT().GetPaymentMethod(gomock.Any(), methodID).
			Return(boundMethod(methodID, userID, accountID), nil)

		tx := newTx(t, repo)
		gomock.InOrder(
			tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, posting *ledger.Transaction) error {
					posting.ID = uuid.New()
					return nil
				}),
			tx.EXPECT().AdjustCreditBalance(gomock.Any(), accountID, dec("1000"), false).
				Return(dec("6000"), nil),
			tx.EXPECT().Commit().Return(nil),
		)

		posting, err := svc.Create(context.Background(), ledger.CreateParams{
			UserID:          userID,
			Type:            ledger.TypeExpense,
			Amount:          dec("1000"),
			Currency:        "RUB",
			PaymentMethodID: idPtr(methodID),
		})

		require.NoError(t, err)
		assert.NotEmpty(t, posting.ID)
	})

	t.Run("IncomeNeverAdjusts", func(t *testing.T) {
		svc, repo := newService(t, false)

		repo.EXPECT().GetPaymentMethod(gomock.Any(), methodID).
			Return(boundMethod(methodID, userID, accountID), nil)

		tx := newTx(t, repo)
		tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
		tx.EXPECT().Commit().Return(nil)

		_, err := svc.Create(context.Background(), ledger.CreateParams{
			UserID:          userID,
			Type:            ledger.TypeIncome,
			Amount:          dec("500"),
			PaymentMethodID: idPtr(methodID),
		})
		require.NoError(t, err)
	})

	t.Run("UnboundMethodNoAdjust", func(t *testing.T) {
		svc, repo := newService(t, false)

		repo.EXPECT().GetPaymentMethod(gomock.Any(), methodID).
			Return(&paymentmethod.PaymentMethod{ID: methodID, UserID: userID, Kind: paymentmethod.KindCash}, nil)

		tx := newTx(t, repo)
		tx.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
		tx.EXPECT().Commit().Return(nil)

		_, err := svc.Create(context.Background(), ledger.CreateParams{
			UserID:          userID,
			Type:            ledger.TypeExpense,
			Amount:          dec("500"),
			PaymentMethodID: idPtr(methodID),
		})
		require.NoError(t, err)
	})

	t.Run("ForeignMethodForbidden", func(t *testing.T) {
		svc, repo := newService(t, false)

		repo.EXPECT().GetPaymentMethod(gomock.Any(), methodID).
			Return(boundMethod(methodID, uuid.New(), accountID), nil)

		_, err := svc.Create(context.Background(), ledger.CreateParams{
			UserID:          userID,
			Type:            ledger.TypeExpense,
			Amount:          dec("500"),
			PaymentMethodID: idPtr(methodID),
		})

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindForbidden))
	})

	t.Run("CategoryTypeMismatch", func(t *testing.T) {
		svc, repo := newService(t, false)

		categoryID := uuid.New()
		repo.EXPECT().GetCategory(gomock.Any(), categoryID).
			Return(&category.Category{ID: categoryID, UserID: userID, Name: "Salary", Type: category.TypeIncome}, nil)

		_, err := svc.Create(context.Background(), ledger.CreateParams{
			UserID:     userID,
			Type:       ledger.TypeExpense,
			Amount:     dec("500"),
			CategoryID: idPtr(categoryID),
		})

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidState))
	})

	t.Run("NonPositiveAmountRejected", func(t *testing.T) {
		svc, _ := newService(t, false)

		_, err := svc.Create(context.Background(), ledger.CreateParams{
			UserID: userID,
			Type:   ledger.TypeExpense,
			Amount: dec("0"),
		})

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindInvalidState))
	})
}

func boundExpense(id, userID, methodID uuid.UUID, amount string) *ledger.Transaction {
	return &ledger.Transaction{
		ID:              id,
		UserID:          userID,
		Type:            ledger.TypeExpense,
		Amount:          dec(amount),
		Currency:        "RUB",
		OccurredAt:      time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethodID: &methodID,
	}
}

func TestService_Update(t *testing.T) {
	userID := uuid.New()
	postingID := uuid.New()
	methodID := uuid.New()
	accountID := uuid.New()

	t.Run("AmountEditRollsBackThenReapplies", func(t *testing.T) {
		svc, repo := newService(t, false)

		repo.EXPECT().GetTransaction(gomock.Any(), postingID).
			Return(boundExpense(postingID, userID, methodID, "100"), nil)
		repo.EXPECT().GetPaymentMethod(gomock.Any(), methodID).
			Return(boundMethod(methodID, userID, accountID), nil).
			Times(2)

		tx := newTx(t, repo)
		gomock.InOrder(
			tx.EXPECT().UpdateTransaction(gomock.Any(), gomock.Any()).Return(nil),
			tx.EXPECT().AdjustCreditBalance(gomock.Any(), accountID, dec("-100"), false).
				Return(dec("900"), nil),
			tx.EXPECT().AdjustCreditBalance(gomock.Any(), accountID, dec("250"), false).
				Return(dec("1150"), nil),
			tx.EXPECT().Commit().Return(nil),
		)

		updated, err := svc.Update(context.Background(), postingID, userID, ledger.UpdateParams{
			Amount: decPtr("250"),
		})

		require.NoError(t, err)
		assert.True(t, updated.Amount.Equal(dec("250")))
	})

	t.Run("ReassignmentMovesDebtBetweenAccounts", func(t *testing.T) {
		svc, repo := newService(t, false)

		otherMethodID := uuid.New()
		otherAccountID := uuid.New()

		repo.EXPECT().GetTransaction(gomock.Any(), postingID).
			Return(boundExpense(postingID, userID, methodID, "100"), nil)
		repo.EXPECT().GetPaymentMethod(gomock.Any(), methodID).
			Return(boundMethod(methodID, userID, accountID), nil)
		repo.EXPECT().GetPaymentMethod(gomock.Any(), otherMethodID).
			Return(boundMethod(otherMethodID, userID, otherAccountID), nil)

		tx := newTx(t, repo)
		gomock.InOrder(
			tx.EXPECT().UpdateTransaction(gomock.Any(), gomock.Any()).Return(nil),
			tx.EXPECT().AdjustCreditBalance(gomock.Any(), accountID, dec("-100"), false).
				Return(dec("0"), nil),
			tx.EXPECT().AdjustCreditBalance(gomock.Any(), otherAccountID, dec("100"), false).
				Return(dec("100"), nil),
			tx.EXPECT().Commit().Return(nil),
		)

		_, err := svc.Update(context.Background(), postingID, userID, ledger.UpdateParams{
			PaymentMethodID: idPtr(otherMethodID),
		})
		require.NoError(t, err)
	})

	t.Run("ExpenseTurnedIncomeOnlyRollsBack", func(t *testing.T) {
		svc, repo := newService(t, false)

		repo.EXPECT().GetTransaction(gomock.Any(), postingID).
			Return(boundExpense(postingID, userID, methodID, "100"), nil)
		repo.EXPECT().GetPaymentMethod(gomock.Any(), methodID).
			Return(boundMethod(methodID, userID, accountID), nil).
			Times(2)

		tx := newTx(t, repo)
		gomock.InOrder(
			tx.EXPECT().UpdateTransaction(gomock.Any(), gomock.Any()).Return(nil),
			tx.EXPECT().AdjustCreditBalance(gomock.Any(), accountID, dec("-100"), false).
				Return(dec("0"), nil),
			tx.EXPECT().Commit().Return(nil),
		)

		_, err := svc.Update(context.Background(), postingID, userID, ledger.UpdateParams{
			Type: typePtr(ledger.TypeIncome),
		})
		require.NoError(t, err)
	})

	t.Run("ForbiddenForOtherUser", func(t *testing.T) {
		svc, repo := newService(t, false)

		repo.EXPECT().GetTransaction(gomock.Any(), postingID).
			Return(boundExpense(postingID, uuid.New(), methodID, "100"), nil)

		_, err := svc.Update(context.Background(), postingID, userID, ledger.UpdateParams{
			Amount: decPtr("1"),
		})

		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindForbidden))
	})
}

func TestService_Remove(t *testing.T) {
	userID := uuid.New()
	postingID := uuid.New()
	methodID := uuid.New()
	accountID := uuid.New()

	t.Run("BoundExpenseRollsBackDebt", func(t *testing.T) {
		svc, repo := newService(t, false)

		repo.EXPECT().GetTransaction(gomock.Any(), postingID).
			Return(boundExpense(postingID, userID, methodID, "750"), nil)
		repo.EXPECT().GetPaymentMethod(gomock.Any(), methodID).
			Return(boundMethod(methodID, userID, accountID), nil)

		tx := newTx(t, repo)
		gomock.InOrder(
			tx.EXPECT().DeleteTransaction(gomock.Any(), postingID).Return(nil),
			tx.EXPECT().AdjustCreditBalance(gomock.Any(), accountID, dec("-750"), false).
				Return(dec("0"), nil),
			tx.EXPECT().Commit().Return(nil),
		)

		require.NoError(t, svc.Remove(context.Background(), postingID, userID))
	})

	t.Run("IncomeDeleteLeavesBalancesAlone", func(t *testing.T) {
		svc, repo := newService(t, false)

		income := boundExpense(postingID, userID, methodID, "750")
		income.Type = ledger.TypeIncome

		repo.EXPECT().GetTransaction(gomock.Any(), postingID).Return(income, nil)
		repo.EXPECT().GetPaymentMethod(gomock.Any(), methodID).
			Return(boundMethod(methodID, userID, accountID), nil)

		tx := newTx(t, repo)
		tx.EXPECT().DeleteTransaction(gomock.Any(), postingID).Return(nil)
		tx.EXPECT().Commit().Return(nil)

		require.NoError(t, svc.Remove(context.Background(), postingID, userID))
	})

	t.Run("NotFound", func(t *testing.T) {
		svc, repo := newService(t, false)

		repo.EXPECT().GetTransaction(gomock.Any(), postingID).
			Return(nil, domain.NotFoundf("transaction %s not found", postingID))

		err := svc.Remove(context.Background(), postingID, userID)
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindNotFound))
	})
}
