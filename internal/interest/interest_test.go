package interest_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/lobzik223/runa-ledger/internal/interest"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestLoanInterest(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		apr     string
		want    string
	}{
		{name: "TwelvePercent", balance: "100000", apr: "12", want: "1000"},
		{name: "RoundsToCents", balance: "100000", apr: "5", want: "416.67"},
		{name: "ZeroBalance", balance: "0", apr: "12", want: "0"},
		{name: "NegativeBalance", balance: "-500", apr: "12", want: "0"},
		{name: "NegativeRate", balance: "100000", apr: "-1", want: "0"},
		{name: "ZeroRate", balance: "100000", apr: "0", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interest.LoanInterest(dec(tt.balance), dec(tt.apr))
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestLoanPayment(t *testing.T) {
	tests := []struct {
		name    string
		balance string
		apr     string
		minimum string
		want    string
	}{
		{name: "InterestPlusMinimum", balance: "100000", apr: "12", minimum: "5000", want: "6000"},
		{name: "InterestOnly", balance: "100000", apr: "12", minimum: "0", want: "1000"},
		{name: "MinimumOnlyWhenZeroRate", balance: "100000", apr: "0", minimum: "2500", want: "2500"},
		{name: "AllZero", balance: "0", apr: "0", minimum: "0", want: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := interest.LoanPayment(dec(tt.balance), dec(tt.apr), dec(tt.minimum))
			assert.True(t, got.Equal(dec(tt.want)), "got %s, want %s", got, tt.want)
		})
	}
}

func TestDepositInterest(t *testing.T) {
	got := interest.DepositInterest(dec("100000"), dec("5"))
	assert.True(t, got.Equal(dec("416.67")), "got %s", got)

	assert.True(t, interest.DepositInterest(dec("-1"), dec("5")).IsZero())
	assert.True(t, interest.DepositInterest(dec("100000"), dec("-5")).IsZero())
}

func TestNextPayoutDate(t *testing.T) {
	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		base     time.Time
		schedule interest.PayoutSchedule
		want     time.Time
	}{
		{name: "Monthly", base: base, schedule: interest.PayoutMonthly, want: time.Date(2025, 2, 15, 10, 0, 0, 0, time.UTC)},
		{name: "Quarterly", base: base, schedule: interest.PayoutQuarterly, want: time.Date(2025, 4, 15, 10, 0, 0, 0, time.UTC)},
		{name: "AtMaturityUnchanged", base: base, schedule: interest.PayoutAtMaturity, want: base},
		{
			// AddDate normalizes out-of-range days, so Jan 31 + 1 month
			// lands in early March rather than Feb 28.
			name:     "MonthlyEndOfMonthNormalizes",
			base:     time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			schedule: interest.PayoutMonthly,
			want:     time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, interest.NextPayoutDate(tt.base, tt.schedule))
		})
	}
}
