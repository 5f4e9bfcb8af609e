// Package services provides the billing engine, BOQ line-item stores, the
// item catalog and the spreadsheet/document renderers.
package services

import "github.com/shopspring/decimal"

// LineTotal is quantity * unit price.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice)
}

// SumLineTotals returns the grand total of entries; zero for none.
func SumLineTotals(entries []BOQLineEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Total)
	}
	return sum
}
