package services

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func catalogWorkbook(t *testing.T) []byte {
	return buildWorkbook(t, []string{"Civil", "Notes", "Steel"}, map[string][][]any{
		"Civil": {
			{"Description", "Unit", "Rate"},
			{"Cement OPC 53", "bags", 450},
			{"Bricks", "pieces", "12.5"},
			{"White Cement", "", 900},
			{"Sand", "cft", "on request"},
			{"Cement OPC 53", "bags", 999},
		},
		"Notes": {
			{"Remarks", "Owner"},
			{"checked", "site"},
		},
		"Steel": {
			{"Description", "Unit", "Rate", "Brand"},
			{"Steel Rod 12mm", "kg", 78, "Tata"},
			{"Steel Rod 16mm", "kg", 80},
		},
	})
}

func TestLoadCatalog(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := LoadCatalog(bytesReader(catalogWorkbook(t)), logger)
	require.NoError(t, err)

	var descs []string
	for _, it := range c.Items() {
		descs = append(descs, it.Description)
	}
	// Blank-cell rows and the narrow Notes sheet are skipped; Sand has a bad rate.
	assert.Equal(t, []string{"Cement OPC 53", "Bricks", "Cement OPC 53", "Steel Rod 12mm"}, descs)
	assert.Contains(t, logs.String(), "skipping catalog row")
	assert.Contains(t, logs.String(), "on request")

	item, ok := c.Lookup("Bricks")
	require.True(t, ok)
	assert.Equal(t, "pieces", item.Unit)
	assert.Equal(t, "Civil", item.Sheet)
	assertDecimal(t, "Bricks rate", "12.5", item.UnitRate)

	first, ok := c.Lookup("Cement OPC 53")
	require.True(t, ok)
	assertDecimal(t, "first duplicate wins", "450", first.UnitRate)

	_, ok = c.Lookup("Gravel")
	assert.False(t, ok)
}

func TestLoadCatalog_NilLogger(t *testing.T) {
	c, err := LoadCatalog(bytesReader(catalogWorkbook(t)), nil)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())
}

func TestLoadCatalog_BadFile(t *testing.T) {
	_, err := LoadCatalog(strings.NewReader("plain text"), nil)
	assert.ErrorIs(t, err, ErrFileProcessing)
}

func TestCatalog_Search(t *testing.T) {
	c := NewCatalog([]CatalogItem{
		{Description: "Cement OPC 53", Unit: "bags", UnitRate: dec("450")},
		{Description: "White Cement", Unit: "bags", UnitRate: dec("900")},
		{Description: "Cement OPC 53", Unit: "bags", UnitRate: dec("999")},
		{Description: "Bricks", Unit: "pieces", UnitRate: dec("12")},
	})

	tests := []struct {
		term string
		want []string
	}{
		{"cement", []string{"Cement OPC 53", "White Cement"}},
		{"  BRICK ", []string{"Bricks"}},
		{"gravel", nil},
		{"", []string{"Cement OPC 53", "White Cement", "Bricks"}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Search(tt.term))
		})
	}
}
