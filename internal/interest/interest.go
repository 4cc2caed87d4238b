// Package interest holds the pure money math behind scheduled payments and
// payouts. No I/O, no state; degenerate inputs (zero or negative principal,
// negative rate) yield zero rather than an error.
package interest

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// PayoutSchedule is how often a deposit pays interest out.
type PayoutSchedule string

const (
	PayoutMonthly    PayoutSchedule = "monthly"
	PayoutQuarterly  PayoutSchedule = "quarterly"
	PayoutAtMaturity PayoutSchedule = "at_maturity"
)

// LoanInterest returns one month of interest on balance at the given APR,
// rounded to cents.
func LoanInterest(balance, apr decimal.Decimal) decimal.Decimal {
	if balance.Sign() <= 0 || apr.Sign() < 0 {
		return decimal.Zero
	}

	return balance.Mul(apr).Div(hundred).Div(twelve).Round(2)
}

// LoanPayment returns the scheduled monthly payment: interest plus the
// minimum payment when one is set, interest-only otherwise.
func LoanPayment(balance, apr, minimumPayment decimal.Decimal) decimal.Decimal {
	interest := LoanInterest(balance, apr)
	if minimumPayment.Sign() > 0 {
		return interest.Add(minimumPayment)
	}

	return interest
}

// DepositInterest returns one month of interest on principal at the given
// APR, rounded to cents.
func DepositInterest(principal, apr decimal.Decimal) decimal.Decimal {
	if principal.Sign() <= 0 || apr.Sign() < 0 {
		return decimal.Zero
	}

	return principal.Mul(apr).Div(hundred).Div(twelve).Round(2)
}

// NextPayoutDate advances base by one schedule period. For at-maturity
// schedules it returns base unchanged; the caller substitutes the real
// maturity date.
func NextPayoutDate(base time.Time, schedule PayoutSchedule) time.Time {
	switch schedule {
	case PayoutMonthly:
		return base.AddDate(0, 1, 0)
	case PayoutQuarterly:
		return base.AddDate(0, 3, 0)
	default:
		return base
	}
}
