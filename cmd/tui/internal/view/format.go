package view

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount renders an amount with grouping separators and its currency
// code, e.g. "1,234.50 RUB".
func FormatAmount(amount decimal.Decimal, currency string) string {
	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("%.2f %s", f, currency)
}

// FormatDate formats a time.Time into YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDatePtr is FormatDate for nullable dates.
func FormatDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}

	return FormatDate(*t)
}
