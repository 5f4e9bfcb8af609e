package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// GenerateBillCSV writes the bill table as CSV: a header row, one row per
// department and a Grand Total row. Values use 2 fixed decimals.
func GenerateBillCSV(data BillExportData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := make([][]string, 0, len(data.Items)+2)
	records = append(records, append([]string{DepartmentColumn}, billHeaders()...))
	for _, it := range data.Items {
		rec := []string{sanitizeExcelCell(it.Department)}
		for _, c := range BillColumns {
			rec = append(rec, FormatFixed(c.Value(it)))
		}
		records = append(records, rec)
	}
	total := []string{grandTotalText}
	for _, v := range data.ColumnTotals() {
		total = append(total, FormatFixed(v))
	}
	records = append(records, total)

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}
