package services

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// amountPrinter groups thousands with commas: 1234.5 -> "1,234.50".
var amountPrinter = message.NewPrinter(language.English)

// FormatAmount rounds to 2 decimal places and groups thousands.
func FormatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprintf("%.2f", d.Round(2).InexactFloat64())
}

// FormatRupees formats an amount as "Rs. 1,234.56". Negative amounts are
// prefixed with "-".
func FormatRupees(d decimal.Decimal) string {
	if d.Round(2).IsNegative() {
		return "-Rs. " + FormatAmount(d.Neg())
	}
	return "Rs. " + FormatAmount(d)
}

// FormatFixed renders d with exactly 2 decimal places and no grouping.
func FormatFixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
