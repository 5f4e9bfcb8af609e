// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"utilitybilling/collections"
	"utilitybilling/services"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestBOQLine creates a boq_lines record for session with total derived
// from qty and price, and returns it.
func CreateTestBOQLine(t *testing.T, app *pocketbase.PocketBase, session string, sortOrder int, itemName string, qty, unitPrice float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(services.BOQLinesCollection)
	if err != nil {
		t.Fatalf("failed to find boq_lines collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("session", session)
	record.Set("sort_order", sortOrder)
	record.Set("item_name", itemName)
	record.Set("quantity", qty)
	record.Set("unit", "Nos")
	record.Set("unit_price", unitPrice)
	record.Set("total", qty*unitPrice)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test BOQ line: %v", err)
	}

	return record
}

// CreateTestCatalogItem appends a catalog_items record and returns it.
func CreateTestCatalogItem(t *testing.T, app *pocketbase.PocketBase, description, unit string, rate float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId(services.CatalogItemsCollection)
	if err != nil {
		t.Fatalf("failed to find catalog_items collection: %v", err)
	}
	existing, _ := app.FindAllRecords(col)

	record := core.NewRecord(col)
	record.Set("sort_order", len(existing)+1)
	record.Set("description", description)
	record.Set("unit", unit)
	record.Set("unit_rate", rate)
	record.Set("sheet", "test")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test catalog item: %v", err)
	}

	return record
}

// AssertHTMLContains checks that body contains all specified fragments.
func AssertHTMLContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected HTML to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// AssertHXRedirect checks that the response has an HX-Redirect header with the expected URL.
func AssertHXRedirect(t *testing.T, headerVal, expectedURL string) {
	t.Helper()

	if headerVal != expectedURL {
		t.Errorf("expected HX-Redirect %q, got %q", expectedURL, headerVal)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
