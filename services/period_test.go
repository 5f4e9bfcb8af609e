package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		label   string
		want    time.Time
		wantErr bool
	}{
		{"Jul-24", time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), false},
		{" Jan-25 ", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), false},
		{"dec-23", time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC), false},
		{"July-24", time.Time{}, true},
		{"Department", time.Time{}, true},
		{"", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			p, err := ParsePeriod(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(p.Start), "Start = %v", p.Start)
		})
	}
}

func TestFormatPeriod(t *testing.T) {
	assert.Equal(t, "Jul-24", FormatPeriod("Jul", 2024))
	assert.Equal(t, "Jan-05", FormatPeriod("Jan", 2005))
}

func TestNewPeriodSequence_SortsChronologically(t *testing.T) {
	seq := NewPeriodSequence([]string{"Aug-24", "Dec-23", "Jan-24", "Jul-24", "bogus", "Jan-24"})
	assert.Equal(t, []string{"Dec-23", "Jan-24", "Jul-24", "Aug-24"}, seq.Labels())
}

func TestPeriodSequence_Previous(t *testing.T) {
	seq := NewPeriodSequence([]string{"Jun-24", "Jul-24", "May-24"})

	prev, ok := seq.Previous("Jul-24")
	assert.True(t, ok)
	assert.Equal(t, "Jun-24", prev)

	_, ok = seq.Previous("May-24")
	assert.False(t, ok, "first period has no predecessor")

	_, ok = seq.Previous("Sep-24")
	assert.False(t, ok, "unknown period has no predecessor")
}

func TestPreviousPeriod_YearBoundary(t *testing.T) {
	prev, ok := PreviousPeriod("Jan-25", []string{"Jan-25", "Dec-24", "Nov-24"})
	require.True(t, ok)
	assert.Equal(t, "Dec-24", prev)
}

func TestPreviousPeriod_SkipsGaps(t *testing.T) {
	// Mar-24 is missing, so Apr-24 falls back to the nearest earlier known period.
	prev, ok := PreviousPeriod("Apr-24", []string{"Feb-24", "Apr-24"})
	require.True(t, ok)
	assert.Equal(t, "Feb-24", prev)
}
