package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"

	"utilitybilling/services"
)

// MigrateLineTotals recomputes total = quantity * unit_price on every stored
// BOQ line whose total has drifted (rows saved by older builds or edited in
// the admin UI). Safe to call on every startup -- returns early if nothing
// needs fixing.
func MigrateLineTotals(app *pocketbase.PocketBase) error {
	col, err := app.FindCollectionByNameOrId(services.BOQLinesCollection)
	if err != nil {
		return fmt.Errorf("migrate: could not find %s collection: %w", services.BOQLinesCollection, err)
	}

	records, err := app.FindAllRecords(col)
	if err != nil {
		return fmt.Errorf("migrate: could not query boq lines: %w", err)
	}

	fixed := 0
	for _, r := range records {
		entry := services.RecordToLineEntry(r)
		want := services.LineTotal(entry.Quantity, entry.UnitPrice)
		if entry.Total.Equal(want) {
			continue
		}

		r.Set("total", want.InexactFloat64())
		if err := app.Save(r); err != nil {
			log.Printf("migrate: failed to fix total of line %q (%s): %v\n", entry.ItemName, r.Id, err)
			continue
		}
		fixed++
	}

	if fixed > 0 {
		log.Printf("migrate: recomputed %d BOQ line total(s)\n", fixed)
	}
	return nil
}
