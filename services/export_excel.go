package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Row layout shared by the generated workbooks.
const (
	excelTitleRow  = 1
	excelHeaderRow = 5
	excelFirstData = 6
	grandTotalText = "Grand Total"
)

type excelStyles struct {
	title, subtitle, header, body, number, totalLabel, totalValue int
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	var s excelStyles
	var err error
	twoDecimals := "#,##0.00"

	defs := []struct {
		dst   *int
		name  string
		style *excelize.Style
	}{
		{&s.title, "title", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&s.subtitle, "subtitle", &excelize.Style{Font: &excelize.Font{Size: 11}}},
		{&s.header, "header", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
			Border:    thinBorders(),
		}},
		{&s.body, "body", &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&s.number, "number", &excelize.Style{
			Font:         &excelize.Font{Size: 10},
			Border:       thinBorders(),
			CustomNumFmt: &twoDecimals,
		}},
		{&s.totalLabel, "total label", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
			Border:    thinBorders(),
		}},
		{&s.totalValue, "total value", &excelize.Style{
			Font:         &excelize.Font{Bold: true, Size: 11},
			Border:       thinBorders(),
			CustomNumFmt: &twoDecimals,
		}},
	}
	for _, d := range defs {
		if *d.dst, err = f.NewStyle(d.style); err != nil {
			return s, fmt.Errorf("create %s style: %w", d.name, err)
		}
	}
	return s, nil
}

// newSheetFile creates a workbook whose only sheet is named name.
func newSheetFile(name string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
		f.Close()
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	return f, nil
}

// writeTitle fills rows 1-3 with the title and subtitle lines.
func writeTitle(f *excelize.File, sheet, lastCol string, st excelStyles, title string, subtitles ...string) error {
	if err := f.MergeCell(sheet, "A1", fmt.Sprintf("%s%d", lastCol, excelTitleRow)); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(sheet, "A1", lastCol+"1", st.title)

	for i, line := range subtitles {
		row := excelTitleRow + 1 + i
		if row >= excelHeaderRow {
			break
		}
		first := fmt.Sprintf("A%d", row)
		last := fmt.Sprintf("%s%d", lastCol, row)
		if err := f.MergeCell(sheet, first, last); err != nil {
			return fmt.Errorf("merge subtitle: %w", err)
		}
		f.SetCellValue(sheet, first, sanitizeExcelCell(line))
		f.SetCellStyle(sheet, first, last, st.subtitle)
	}
	return nil
}

func writeHeaders(f *excelize.File, sheet string, st excelStyles, headers []string) string {
	for i, h := range headers {
		ref, _ := excelize.CoordinatesToCellName(i+1, excelHeaderRow)
		f.SetCellValue(sheet, ref, h)
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	f.SetCellStyle(sheet, "A5", fmt.Sprintf("%s%d", last, excelHeaderRow), st.header)
	return last
}

func writeBuffer(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateBillExcel writes one row per department followed by a Grand Total
// row. Amounts are rounded to 2 decimal places.
func GenerateBillExcel(data BillExportData) ([]byte, error) {
	const sheet = "Bills"
	f, err := newSheetFile(sheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	headers := append([]string{DepartmentColumn}, billHeaders()...)
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := writeTitle(f, sheet, lastCol, st, data.Title,
		fmt.Sprintf("Bill Month: %s    FPA Month: %s", data.BillingPeriod, data.FPAPeriod),
		"Date: "+data.CreatedDate,
	); err != nil {
		return nil, err
	}
	writeHeaders(f, sheet, st, headers)

	f.SetColWidth(sheet, "A", "A", 28)
	f.SetColWidth(sheet, "B", lastCol, 14)

	row := excelFirstData
	for _, it := range data.Items {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), sanitizeExcelCell(it.Department))
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), st.body)
		for i, c := range BillColumns {
			ref, _ := excelize.CoordinatesToCellName(i+2, row)
			f.SetCellValue(sheet, ref, c.Value(it).Round(2).InexactFloat64())
		}
		f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%s%d", lastCol, row), st.number)
		row++
	}

	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), grandTotalText)
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), st.totalLabel)
	for i, total := range data.ColumnTotals() {
		ref, _ := excelize.CoordinatesToCellName(i+2, row)
		f.SetCellValue(sheet, ref, total.Round(2).InexactFloat64())
	}
	f.SetCellStyle(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("%s%d", lastCol, row), st.totalValue)

	return writeBuffer(f)
}

func billHeaders() []string {
	out := make([]string, len(BillColumns))
	for i, c := range BillColumns {
		out[i] = c.Header
	}
	return out
}

// GenerateBOQExcel writes the current BOQ with a Sr# column and a final
// Grand Total row.
func GenerateBOQExcel(data BOQExportData) ([]byte, error) {
	const sheet = "BOQ"
	f, err := newSheetFile(sheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	lastCol, _ := excelize.ColumnNumberToName(len(BOQHeaders))
	if err := writeTitle(f, sheet, lastCol, st, data.Title, "", "Date: "+data.CreatedDate); err != nil {
		return nil, err
	}
	writeHeaders(f, sheet, st, BOQHeaders)

	widths := []float64{6, 48, 12, 10, 14, 16}
	for i, w := range widths {
		c, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, c, c, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", c, err)
		}
	}

	row := excelFirstData
	for i, e := range data.Entries {
		r := fmt.Sprintf("%d", row)
		f.SetCellValue(sheet, "A"+r, i+1)
		f.SetCellValue(sheet, "B"+r, sanitizeExcelCell(e.ItemName))
		f.SetCellValue(sheet, "C"+r, e.Quantity.InexactFloat64())
		f.SetCellValue(sheet, "D"+r, sanitizeExcelCell(e.Unit))
		f.SetCellValue(sheet, "E"+r, e.UnitPrice.InexactFloat64())
		f.SetCellValue(sheet, "F"+r, e.Total.InexactFloat64())
		f.SetCellStyle(sheet, "A"+r, "B"+r, st.body)
		f.SetCellStyle(sheet, "C"+r, "C"+r, st.number)
		f.SetCellStyle(sheet, "D"+r, "D"+r, st.body)
		f.SetCellStyle(sheet, "E"+r, "F"+r, st.number)
		row++
	}

	r := fmt.Sprintf("%d", row)
	if err := f.MergeCell(sheet, "A"+r, "E"+r); err != nil {
		return nil, fmt.Errorf("merge grand total: %w", err)
	}
	f.SetCellValue(sheet, "A"+r, grandTotalText)
	f.SetCellStyle(sheet, "A"+r, "E"+r, st.totalLabel)
	f.SetCellValue(sheet, "F"+r, data.GrandTotal.InexactFloat64())
	f.SetCellStyle(sheet, "F"+r, "F"+r, st.totalValue)

	return writeBuffer(f)
}

// ReadBOQExcel reads back a workbook written by GenerateBOQExcel. It locates
// the Sr# header row and reads line rows until the Sr# column no longer holds
// a serial number, which is the Grand Total row.
func ReadBOQExcel(file io.Reader) ([]BOQLineEntry, error) {
	sheets, err := readWorkbook(file)
	if err != nil {
		return nil, fileError("read BOQ file", err)
	}
	rows := sheets[0].Rows

	start := -1
	for i, row := range rows {
		if cell(row, 0) == BOQHeaders[0] {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, fileError("read BOQ file", errors.New("header row not found"))
	}

	var entries []BOQLineEntry
	for i, row := range rows[start:] {
		if isBlankRow(row) {
			continue
		}
		if !isSerialNumber(cell(row, 0)) {
			break
		}
		e, err := parseBOQRow(row)
		if err != nil {
			return nil, fileError("read BOQ file", fmt.Errorf("row %d: %w", start+i+1, err))
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// isSerialNumber reports whether the Sr# cell holds a line number. Item names
// are free text, so only this column marks where the lines end.
func isSerialNumber(v string) bool {
	if v == grandTotalText {
		return false
	}
	n, err := strconv.Atoi(v)
	return err == nil && n > 0
}

func parseBOQRow(row []string) (BOQLineEntry, error) {
	nums := make([]decimal.Decimal, 3)
	for i, idx := range []int{2, 4, 5} {
		d, err := decimal.NewFromString(cell(row, idx))
		if err != nil {
			return BOQLineEntry{}, fmt.Errorf("column %q: %w", BOQHeaders[idx], err)
		}
		nums[i] = d
	}
	return BOQLineEntry{
		ItemName:  unsanitizeExcelCell(cell(row, 1)),
		Quantity:  nums[0],
		Unit:      unsanitizeExcelCell(cell(row, 3)),
		UnitPrice: nums[1],
		Total:     nums[2],
	}, nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// unsanitizeExcelCell reverses sanitizeExcelCell.
func unsanitizeExcelCell(s string) string {
	if len(s) > 1 && s[0] == '\'' && strings.ContainsRune("=+-@\t\r|", rune(s[1])) {
		return s[1:]
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
