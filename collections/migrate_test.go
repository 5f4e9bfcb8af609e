package collections_test

import (
	"testing"

	"utilitybilling/collections"
	"utilitybilling/services"
	"utilitybilling/testhelpers"
)

func TestMigrateLineTotals_FixesDrift(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	good := testhelpers.CreateTestBOQLine(t, app, "sess-1", 1, "Cement", 10, 500)
	bad := testhelpers.CreateTestBOQLine(t, app, "sess-1", 2, "Sand", 4, 25)
	bad.Set("total", 1)
	if err := app.Save(bad); err != nil {
		t.Fatalf("save drifted line: %v", err)
	}

	if err := collections.MigrateLineTotals(app); err != nil {
		t.Fatalf("MigrateLineTotals() error: %v", err)
	}

	reloaded, err := app.FindRecordById(services.BOQLinesCollection, bad.Id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.GetFloat("total"); got != 100 {
		t.Errorf("Sand total = %v, want 100", got)
	}

	reloaded, _ = app.FindRecordById(services.BOQLinesCollection, good.Id)
	if got := reloaded.GetFloat("total"); got != 5000 {
		t.Errorf("Cement total = %v, want 5000", got)
	}
}

func TestMigrateLineTotals_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestBOQLine(t, app, "sess-1", 1, "Bricks", 1000, 12.5)

	for i := 0; i < 2; i++ {
		if err := collections.MigrateLineTotals(app); err != nil {
			t.Fatalf("run %d error: %v", i+1, err)
		}
	}

	records, _ := app.FindAllRecords(services.BOQLinesCollection)
	if len(records) != 1 {
		t.Fatalf("expected 1 line, got %d", len(records))
	}
	if got := records[0].GetFloat("total"); got != 12500 {
		t.Errorf("total = %v, want 12500", got)
	}
}
