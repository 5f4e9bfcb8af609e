package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/page"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/border"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"
)

var (
	pdfHeaderBg  = &props.Color{Red: 33, Green: 37, Blue: 41}
	pdfSectionBg = &props.Color{Red: 230, Green: 236, Blue: 245}
	pdfSummaryBg = &props.Color{Red: 240, Green: 240, Blue: 240}
	pdfMutedText = &props.Color{Red: 80, Green: 80, Blue: 80}
)

func newPDFBuilder(o orientation.Type) core.Maroto {
	cfg := config.NewBuilder().
		WithOrientation(o).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()
	return maroto.New(cfg)
}

func generatePDF(m core.Maroto) ([]byte, error) {
	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func titleRow(title string) core.Row {
	return row.New(12).Add(
		col.New(12).Add(
			text.New(title, props.Text{
				Size:  16,
				Style: fontstyle.Bold,
				Align: align.Center,
			}),
		),
	)
}

func infoRow(left, right string) core.Row {
	return row.New(8).Add(
		col.New(6).Add(text.New(left, props.Text{Size: 9, Align: align.Left, Color: pdfMutedText})),
		col.New(6).Add(text.New(right, props.Text{Size: 9, Align: align.Right, Color: pdfMutedText})),
	)
}

// GenerateBillPDF renders one page per department, each broken into the
// unit, tariff, surcharge, base bill, FPA and total sections.
func GenerateBillPDF(data BillExportData) ([]byte, error) {
	m := newPDFBuilder(orientation.Vertical)

	if len(data.Items) == 0 {
		m.AddRows(
			titleRow(data.Title),
			infoRow("Bill Month: "+data.BillingPeriod, "Date: "+data.CreatedDate),
			row.New(10).Add(col.New(12).Add(text.New("No departments to bill.", props.Text{Size: 10}))),
		)
		return generatePDF(m)
	}

	pages := make([]core.Page, 0, len(data.Items))
	for _, it := range data.Items {
		pages = append(pages, billPage(data, it.Rounded()))
	}
	m.AddPages(pages...)
	return generatePDF(m)
}

type billField struct {
	label string
	value string
}

func billPage(data BillExportData, it BillLineItem) core.Page {
	rows := []core.Row{
		titleRow(data.Title),
		row.New(10).Add(
			col.New(12).Add(text.New(it.Department, props.Text{
				Size:  13,
				Style: fontstyle.Bold,
				Align: align.Center,
			})),
		),
		infoRow(
			fmt.Sprintf("Bill Month: %s    FPA Month: %s", data.BillingPeriod, data.FPAPeriod),
			"Date: "+data.CreatedDate,
		),
		row.New(4),
	}

	rows = append(rows, billSection("T1 & T2 Units", []billField{
		{"T1 Units", FormatFixed(it.T1Units)},
		{"T2 Units", FormatFixed(it.T2Units)},
		{"Total Units", FormatFixed(it.TotalUnits)},
	})...)
	rows = append(rows, billSection("Tariff Charges", []billField{
		{"T1 Bill", FormatRupees(it.T1Bill)},
		{"T2 Bill", FormatRupees(it.T2Bill)},
	})...)
	rows = append(rows, billSection("Surcharges", []billField{
		{"FC Surcharge", FormatRupees(it.FCSurcharge)},
		{"Qtr Tariff", FormatRupees(it.QtrTariff)},
	})...)

	base := []billField{{"Base Bill", FormatRupees(it.BaseBill)}}
	if data.ShowGST {
		base = append(base, billField{"GST (18%)", FormatRupees(it.GST)})
	}
	base = append(base, billField{"Pre Total", FormatRupees(it.PreTotal)})
	rows = append(rows, billSection("Base Bill Summary", base)...)

	fpa := []billField{{"FPA Charges", FormatRupees(it.FPACharges)}}
	if data.ShowFPAGST {
		fpa = append(fpa, billField{"FPA GST (18%)", FormatRupees(it.FPAGST)})
	}
	fpa = append(fpa, billField{"Total FPA", FormatRupees(it.TotalFPA)})
	rows = append(rows, billSection(fmt.Sprintf("FPA Charges (%s)", data.FPAPeriod), fpa)...)

	totalCell := &props.Cell{BackgroundColor: pdfSummaryBg, BorderType: border.Full}
	totalText := props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right, Right: 2}
	rows = append(rows,
		row.New(4),
		row.New(10).Add(
			col.New(8).Add(text.New("Total Payable", totalText)).WithStyle(totalCell),
			col.New(4).Add(text.New(FormatRupees(it.TotalBill), totalText)).WithStyle(totalCell),
		),
	)

	return page.New().Add(rows...)
}

func billSection(heading string, fields []billField) []core.Row {
	headCell := &props.Cell{BackgroundColor: pdfSectionBg}
	rows := []core.Row{
		row.New(8).Add(
			col.New(12).Add(text.New(heading, props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Left:  2,
				Top:   1,
			})).WithStyle(headCell),
		),
	}
	for _, f := range fields {
		rows = append(rows, row.New(7).Add(
			col.New(8).Add(text.New(f.label, props.Text{Size: 9, Left: 4, Top: 1})),
			col.New(4).Add(text.New(f.value, props.Text{Size: 9, Align: align.Right, Right: 2, Top: 1})),
		))
	}
	return append(rows, row.New(3))
}

// boqColumnSizes are the grid widths of the BOQ table columns.
var boqColumnSizes = []int{1, 4, 2, 1, 2, 2}

// GenerateBOQPDF renders the BOQ as a single table. The Grand Total label
// spans every column but the last.
func GenerateBOQPDF(data BOQExportData) ([]byte, error) {
	m := newPDFBuilder(orientation.Vertical)

	m.AddRows(
		titleRow(data.Title),
		infoRow(fmt.Sprintf("Items: %d", len(data.Entries)), "Date: "+data.CreatedDate),
		row.New(4),
	)

	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
		Top:   1,
	}
	headerCell := &props.Cell{BackgroundColor: pdfHeaderBg, BorderType: border.Full}
	headers := make([]core.Col, len(BOQHeaders))
	for i, h := range BOQHeaders {
		headers[i] = col.New(boqColumnSizes[i]).Add(text.New(h, headerText)).WithStyle(headerCell)
	}
	m.AddRows(row.New(8).Add(headers...))

	altBg := &props.Color{Red: 248, Green: 248, Blue: 248}
	for i, e := range data.Entries {
		cellStyle := &props.Cell{BorderType: border.Full}
		if i%2 == 1 {
			cellStyle.BackgroundColor = altBg
		}
		m.AddRows(boqRow(i+1, e, cellStyle))
	}

	grandCell := &props.Cell{BackgroundColor: pdfSummaryBg, BorderType: border.Full}
	grandText := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right, Right: 2, Top: 1}
	labelSpan := 12 - boqColumnSizes[len(boqColumnSizes)-1]
	m.AddRows(
		row.New(8).Add(
			col.New(labelSpan).Add(text.New(grandTotalText, grandText)).WithStyle(grandCell),
			col.New(boqColumnSizes[len(boqColumnSizes)-1]).Add(
				text.New(FormatRupees(data.GrandTotal), grandText),
			).WithStyle(grandCell),
		),
	)

	return generatePDF(m)
}

func boqRow(position int, e BOQLineEntry, style *props.Cell) core.Row {
	center := props.Text{Size: 8, Align: align.Center, Top: 1}
	left := props.Text{Size: 8, Align: align.Left, Left: 1, Top: 1}
	right := props.Text{Size: 8, Align: align.Right, Right: 1, Top: 1}

	values := []struct {
		s string
		p props.Text
	}{
		{fmt.Sprintf("%d", position), center},
		{e.ItemName, left},
		{formatQty(e.Quantity), right},
		{e.Unit, center},
		{FormatRupees(e.UnitPrice), right},
		{FormatRupees(e.Total), right},
	}
	cols := make([]core.Col, len(values))
	for i, v := range values {
		cols[i] = col.New(boqColumnSizes[i]).Add(text.New(v.s, v.p)).WithStyle(style)
	}
	return row.New(7).Add(cols...)
}

// formatQty returns a string representation of the quantity value.
// Whole numbers are formatted without decimals; fractional values get 2 decimal places.
func formatQty(qty decimal.Decimal) string {
	if qty.IsInteger() {
		return qty.StringFixed(0)
	}
	return qty.StringFixed(2)
}
