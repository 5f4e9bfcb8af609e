package collections_test

import (
	"testing"

	"utilitybilling/collections"
	"utilitybilling/services"
	"utilitybilling/testhelpers"
)

func TestSeed_CreatesDefaultCatalog(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	catalog, err := services.LoadStoredCatalog(app)
	if err != nil {
		t.Fatalf("LoadStoredCatalog() error: %v", err)
	}
	if catalog.Len() != 5 {
		t.Fatalf("expected 5 catalog items, got %d", catalog.Len())
	}

	want := map[string]string{
		"Bricks":    "pieces",
		"Cement":    "bags",
		"Steel Rod": "kg",
		"Sand":      "cft",
		"Crush":     "cft",
	}
	for desc, unit := range want {
		item, ok := catalog.Lookup(desc)
		if !ok {
			t.Errorf("catalog item %q not found", desc)
			continue
		}
		if item.Unit != unit {
			t.Errorf("%s unit = %q, want %q", desc, item.Unit, unit)
		}
	}

	if got := catalog.Items()[0].Description; got != "Bricks" {
		t.Errorf("first item = %q, want Bricks (sort order preserved)", got)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	records, _ := app.FindAllRecords(services.CatalogItemsCollection)
	if len(records) != 5 {
		t.Errorf("expected 5 catalog items after idempotent seed, got %d", len(records))
	}
}

func TestSeed_SkipsWhenDataExists(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestCatalogItem(t, app, "Tiles 2x2", "box", 640)

	if err := collections.Seed(app); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	records, _ := app.FindAllRecords(services.CatalogItemsCollection)
	if len(records) != 1 {
		t.Fatalf("expected 1 catalog item (pre-existing only), got %d", len(records))
	}
	if records[0].GetString("description") != "Tiles 2x2" {
		t.Errorf("expected pre-existing item, got %q", records[0].GetString("description"))
	}
}
