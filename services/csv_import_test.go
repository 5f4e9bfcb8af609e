package services

import (
	"strings"
	"testing"
)

func TestParseCSV_Valid(t *testing.T) {
	input := "Department,Jul-24 T1,Jul-24 T2\nAdmin,150,70\nLab,20,10\n"
	headers, rows, err := parseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	if len(headers) != 3 {
		t.Errorf("expected 3 headers, got %d", len(headers))
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 data rows, got %d", len(rows))
	}
}

func TestParseCSV_RaggedRows(t *testing.T) {
	input := "Department,Jul-24 T1,Jul-24 T2\nAdmin,150\n"
	_, rows, err := parseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	if got := cell(rows[0], 2); got != "" {
		t.Errorf("missing trailing cell = %q, want empty", got)
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	input := "Department,Jul-24 T1\n"
	_, _, err := parseCSV(strings.NewReader(input))
	if err == nil {
		t.Fatal("expected error for header-only file")
	}
	if !strings.Contains(err.Error(), "at least one data row") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	_, _, err := parseCSV(strings.NewReader(""))
	if err == nil {
		t.Error("expected error for empty file")
	}
}

func TestParseExcel_FirstSheet(t *testing.T) {
	data := buildWorkbook(t, []string{"Readings", "Other"}, map[string][][]any{
		"Readings": {{"Department", "Jul-24 T1"}, {"Admin", 150}},
		"Other":    {{"Ignored"}, {"x"}},
	})
	headers, rows, err := parseExcel(bytesReader(data))
	if err != nil {
		t.Fatalf("parseExcel() error = %v", err)
	}
	if headers[0] != "Department" {
		t.Errorf("headers[0] = %q, want Department", headers[0])
	}
	if len(rows) != 1 || cell(rows[0], 1) != "150" {
		t.Errorf("rows = %v, want one row with reading 150", rows)
	}
}

func TestParseTabular_UnsupportedExtension(t *testing.T) {
	_, _, err := parseTabular(strings.NewReader("a,b\n1,2\n"), "readings.ods")
	if err == nil || !strings.Contains(err.Error(), "unsupported file format") {
		t.Errorf("expected unsupported format error, got %v", err)
	}
}

func TestTrimHeaders(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{"whitespace", []string{" Department ", "Jul-24 T1\t"}, []string{"Department", "Jul-24 T1"}},
		{"byte order mark", []string{"\ufeffDepartment", "Jul-24 T1"}, []string{"Department", "Jul-24 T1"}},
		{"byte order mark then space", []string{"\ufeff Department", "Jul-24 T1"}, []string{"Department", "Jul-24 T1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trimHeaders(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("trimHeaders() = %q, want %q", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("trimHeaders()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestIsBlankRow(t *testing.T) {
	tests := []struct {
		row  []string
		want bool
	}{
		{nil, true},
		{[]string{"", "  "}, true},
		{[]string{"", "x"}, false},
	}
	for _, tt := range tests {
		if got := isBlankRow(tt.row); got != tt.want {
			t.Errorf("isBlankRow(%q) = %v, want %v", tt.row, got, tt.want)
		}
	}
}
