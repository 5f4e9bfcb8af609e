package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadings_CSV(t *testing.T) {
	csvData := " Department ,Jun-24 T1,Jun-24 T2,Jul-24 T1,Jul-24 T2,Remarks\n" +
		"Admin,100,50,150,70,ok\n" +
		"\n" +
		"Lab,\"1,200\",,1300,nan,\n"

	table, err := ParseReadings(strings.NewReader(csvData), "readings.csv")
	require.NoError(t, err)

	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Jun-24", "Jul-24"}, table.Periods.Labels())
	assert.True(t, table.HasColumn(key("Jul-24", TierT2)))
	assert.False(t, table.HasColumn(key("Aug-24", TierT1)))

	admin := table.Rows[0]
	assert.Equal(t, "Admin", admin.Department)
	assertDecimal(t, "Admin Jul-24 T1", "150", admin.Reading(key("Jul-24", TierT1)).Decimal)

	lab := table.Rows[1]
	assertDecimal(t, "Lab Jun-24 T1", "1200", lab.Reading(key("Jun-24", TierT1)).Decimal)
	assert.False(t, lab.Reading(key("Jun-24", TierT2)).Valid, "blank cell is absent")
	assert.False(t, lab.Reading(key("Jul-24", TierT2)).Valid, "nan cell is absent")
}

func TestParseReadings_CSVWithByteOrderMark(t *testing.T) {
	csvData := "\ufeffDepartment,Jun-24 T1,Jun-24 T2,Jul-24 T1,Jul-24 T2\n" +
		"Admin,100,50,150,70\n"

	table, err := ParseReadings(strings.NewReader(csvData), "readings.csv")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Admin", table.Rows[0].Department)
	assert.Equal(t, []string{"Jun-24", "Jul-24"}, table.Periods.Labels())
}

func TestParseReadings_Excel(t *testing.T) {
	data := buildWorkbook(t, []string{"Readings"}, map[string][][]any{
		"Readings": {
			{"Department", "Jun-24 T1", "Jun-24 T2", "Jul-24 T1", "Jul-24 T2"},
			{"Admin", 100, 50, 150, 70},
		},
	})

	table, err := ParseReadings(bytesReader(data), "readings.xlsx")
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)

	run, err := ComputeBills(table, scenarioTariff(), RunOptions{BillingPeriod: "Jul-24", FPAPeriod: "Jul-24"})
	require.NoError(t, err)
	assertDecimal(t, "TotalBill", "831.9", run.Items[0].TotalBill)
}

func TestParseReadings_Errors(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		data     string
		wantMsg  string
	}{
		{"missing department", "r.csv", "Dept,Jul-24 T1\nA,1\n", `missing "Department" column`},
		{"not a number", "r.csv", "Department,Jul-24 T1\nA,abc\n", "not a number"},
		{"header only", "r.csv", "Department,Jul-24 T1\n", "header row"},
		{"unsupported extension", "r.txt", "Department\nA\n", "unsupported file format"},
		{"corrupt workbook", "r.xlsx", "not a zip", "failed to open Excel file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := ParseReadings(strings.NewReader(tt.data), tt.fileName)
			assert.Nil(t, table)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrFileProcessing), "want ErrFileProcessing, got %v", err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseReadingColumn(t *testing.T) {
	tests := []struct {
		header string
		want   ReadingKey
		ok     bool
	}{
		{"Jul-24 T1", key("Jul-24", TierT1), true},
		{"Jul-24 T2", key("Jul-24", TierT2), true},
		{"Jul-24 T3", ReadingKey{}, false},
		{"Jul-24T1", ReadingKey{}, false},
		{"Department", ReadingKey{}, false},
	}
	for _, tt := range tests {
		got, ok := parseReadingColumn(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.want, got, tt.header)
	}
}

func TestDetectPeriods(t *testing.T) {
	seq := detectPeriods([]string{"Department", "Aug-24 T1", "Jun-24 T2", "Notes T1", "Jul-24 T1"})
	assert.Equal(t, []string{"Jun-24", "Jul-24", "Aug-24"}, seq.Labels())
}
