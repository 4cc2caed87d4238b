package domain

import "github.com/Rhymond/go-money"

// DefaultCurrency is assumed when an account or posting omits one.
const DefaultCurrency = "RUB"

// ValidCurrency reports whether code is a known ISO 4217 currency code.
func ValidCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}

// NormalizeCurrency returns the default currency for an empty code and the
// code unchanged otherwise.
func NormalizeCurrency(code string) string {
	if code == "" {
		return DefaultCurrency
	}

	return code
}
