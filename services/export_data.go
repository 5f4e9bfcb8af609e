package services

import "github.com/shopspring/decimal"

// BillColumn is one numeric display column of the bill table.
type BillColumn struct {
	Header string
	Value  func(BillLineItem) decimal.Decimal
}

// BillColumns lists the bill table columns after Department, in display order.
var BillColumns = []BillColumn{
	{"T1 Units", func(b BillLineItem) decimal.Decimal { return b.T1Units }},
	{"T2 Units", func(b BillLineItem) decimal.Decimal { return b.T2Units }},
	{"Total Units", func(b BillLineItem) decimal.Decimal { return b.TotalUnits }},
	{"T1 Bill", func(b BillLineItem) decimal.Decimal { return b.T1Bill }},
	{"T2 Bill", func(b BillLineItem) decimal.Decimal { return b.T2Bill }},
	{"FC Surcharge", func(b BillLineItem) decimal.Decimal { return b.FCSurcharge }},
	{"Qtr Tariff", func(b BillLineItem) decimal.Decimal { return b.QtrTariff }},
	{"Base Bill", func(b BillLineItem) decimal.Decimal { return b.BaseBill }},
	{"GST (18%)", func(b BillLineItem) decimal.Decimal { return b.GST }},
	{"Pre Total", func(b BillLineItem) decimal.Decimal { return b.PreTotal }},
	{"FPA Charges", func(b BillLineItem) decimal.Decimal { return b.FPACharges }},
	{"FPA GST (18%)", func(b BillLineItem) decimal.Decimal { return b.FPAGST }},
	{"Total FPA (with GST)", func(b BillLineItem) decimal.Decimal { return b.TotalFPA }},
	{"Total Bill", func(b BillLineItem) decimal.Decimal { return b.TotalBill }},
}

// BillExportData holds everything the bill renderers need.
type BillExportData struct {
	Title         string
	BillingPeriod string
	FPAPeriod     string
	CreatedDate   string
	Items         []BillLineItem
	Summary       BillSummary
	ShowGST       bool
	ShowFPAGST    bool
}

// NewBillExportData prepares a run for rendering.
func NewBillExportData(run *BillRun, createdDate string) BillExportData {
	return BillExportData{
		Title:         "Electricity Bill",
		BillingPeriod: run.Billing.Period,
		FPAPeriod:     run.FPA.Period,
		CreatedDate:   createdDate,
		Items:         run.Items,
		Summary:       run.Summary,
		ShowGST:       run.Tariff.ApplyGST,
		ShowFPAGST:    run.Tariff.ApplyFPA && run.Tariff.ApplyFPAGST,
	}
}

// ColumnTotals sums every bill column across items, unrounded.
func (d BillExportData) ColumnTotals() []decimal.Decimal {
	totals := make([]decimal.Decimal, len(BillColumns))
	for _, it := range d.Items {
		for i, c := range BillColumns {
			totals[i] = totals[i].Add(c.Value(it))
		}
	}
	return totals
}

// BOQHeaders are the BOQ table columns.
var BOQHeaders = []string{"Sr#", "Item Name", "Quantity", "Unit", "Unit Price", "Total"}

// BOQExportData holds the current BOQ for rendering.
type BOQExportData struct {
	Title       string
	CreatedDate string
	Entries     []BOQLineEntry
	GrandTotal  decimal.Decimal
}

// NewBOQExportData prepares entries for rendering.
func NewBOQExportData(entries []BOQLineEntry, createdDate string) BOQExportData {
	return BOQExportData{
		Title:       "Bill of Quantities",
		CreatedDate: createdDate,
		Entries:     entries,
		GrandTotal:  SumLineTotals(entries),
	}
}
