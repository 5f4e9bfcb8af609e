package services

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is a tariff slab of metered consumption.
type Tier string

const (
	TierT1 Tier = "T1"
	TierT2 Tier = "T2"
)

// Tiers lists the tiers in billing order.
var Tiers = []Tier{TierT1, TierT2}

// DepartmentColumn is the required identity column of a readings file.
const DepartmentColumn = "Department"

// ReadingKey addresses one reading column, e.g. {"Jul-24", T1} -> "Jul-24 T1".
type ReadingKey struct {
	Period string
	Tier   Tier
}

// Column returns the header name of the reading column.
func (k ReadingKey) Column() string {
	return k.Period + " " + string(k.Tier)
}

// ReadingRow holds one department's meter readings. Absent readings have no
// entry in Readings.
type ReadingRow struct {
	Department string
	Readings   map[ReadingKey]decimal.Decimal
}

// Reading returns the reading for key; Valid is false when it is absent.
func (r ReadingRow) Reading(key ReadingKey) decimal.NullDecimal {
	v, ok := r.Readings[key]
	return decimal.NullDecimal{Decimal: v, Valid: ok}
}

// ReadingTable is the typed form of an uploaded readings file.
type ReadingTable struct {
	Rows    []ReadingRow
	Periods PeriodSequence
	columns map[ReadingKey]bool
}

// NewReadingTable builds a table from rows, registering the given columns.
// Periods are derived from the columns.
func NewReadingTable(rows []ReadingRow, keys ...ReadingKey) *ReadingTable {
	t := &ReadingTable{Rows: rows, columns: make(map[ReadingKey]bool, len(keys))}
	labels := make([]string, 0, len(keys))
	for _, k := range keys {
		t.columns[k] = true
		labels = append(labels, k.Period)
	}
	t.Periods = NewPeriodSequence(labels)
	return t
}

// HasColumn reports whether the source file had the reading column.
func (t *ReadingTable) HasColumn(key ReadingKey) bool {
	return t.columns[key]
}

// parseReadingColumn splits "Jul-24 T1" into its key. ok is false for columns
// that are not "<period> <tier>".
func parseReadingColumn(header string) (ReadingKey, bool) {
	fields := strings.Fields(header)
	if len(fields) != 2 {
		return ReadingKey{}, false
	}
	tier := Tier(fields[1])
	if tier != TierT1 && tier != TierT2 {
		return ReadingKey{}, false
	}
	return ReadingKey{Period: fields[0], Tier: tier}, true
}

// detectPeriods scans headers mentioning T1 or T2 and collects the leading
// token of each as a candidate period. Tokens that do not parse are dropped.
func detectPeriods(headers []string) PeriodSequence {
	var candidates []string
	for _, h := range headers {
		if !strings.Contains(h, string(TierT1)) && !strings.Contains(h, string(TierT2)) {
			continue
		}
		fields := strings.Fields(h)
		if len(fields) == 0 {
			continue
		}
		candidates = append(candidates, fields[0])
	}
	return NewPeriodSequence(candidates)
}

// parseReading parses a meter reading cell. Blank and NaN cells are absent.
func parseReading(raw string) (decimal.NullDecimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}, nil
}

// ParseReadings reads a meter readings file (.xlsx or .csv). Column names are
// trimmed; a Department column is required. Any failure is returned as a
// *FileProcessingError.
func ParseReadings(file io.Reader, fileName string) (*ReadingTable, error) {
	headers, dataRows, err := parseTabular(file, fileName)
	if err != nil {
		return nil, fileError("read readings file", err)
	}
	headers = trimHeaders(headers)

	deptIdx := -1
	keyByCol := make(map[int]ReadingKey)
	columns := make(map[ReadingKey]bool)
	for i, h := range headers {
		if h == DepartmentColumn {
			deptIdx = i
			continue
		}
		if key, ok := parseReadingColumn(h); ok {
			keyByCol[i] = key
			columns[key] = true
		}
	}
	if deptIdx < 0 {
		return nil, fileError("read readings file", fmt.Errorf("missing %q column", DepartmentColumn))
	}

	table := &ReadingTable{
		Periods: detectPeriods(headers),
		columns: columns,
	}
	for rowIdx, row := range dataRows {
		if isBlankRow(row) {
			continue
		}
		rr := ReadingRow{
			Department: cell(row, deptIdx),
			Readings:   make(map[ReadingKey]decimal.Decimal, len(keyByCol)),
		}
		for colIdx, key := range keyByCol {
			v, err := parseReading(cell(row, colIdx))
			if err != nil {
				return nil, fileError("read readings file",
					fmt.Errorf("row %d column %q: not a number", rowIdx+2, key.Column()))
			}
			if v.Valid {
				rr.Readings[key] = v.Decimal
			}
		}
		table.Rows = append(table.Rows, rr)
	}
	return table, nil
}
