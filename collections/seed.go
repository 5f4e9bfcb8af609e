package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/shopspring/decimal"

	"utilitybilling/services"
)

type catalogDef struct {
	description string
	unit        string
}

// defaultCatalog is offered before any catalog workbook is uploaded. Rates
// start at zero and are entered per line.
var defaultCatalog = []catalogDef{
	{"Bricks", "pieces"},
	{"Cement", "bags"},
	{"Steel Rod", "kg"},
	{"Sand", "cft"},
	{"Crush", "cft"},
}

// Seed inserts the default item catalog. It is safe to call on every startup
// because it returns early if any catalog records already exist.
func Seed(app *pocketbase.PocketBase) error {
	col, err := app.FindCollectionByNameOrId(services.CatalogItemsCollection)
	if err != nil {
		return fmt.Errorf("seed: could not find %s collection: %w", services.CatalogItemsCollection, err)
	}
	existing, err := app.FindAllRecords(col)
	if err != nil {
		return fmt.Errorf("seed: could not query catalog items: %w", err)
	}
	if len(existing) > 0 {
		return nil // already seeded
	}

	log.Println("seed: catalog_items collection is empty – inserting default catalog …")

	items := make([]services.CatalogItem, len(defaultCatalog))
	for i, d := range defaultCatalog {
		items[i] = services.CatalogItem{
			Description: d.description,
			Unit:        d.unit,
			UnitRate:    decimal.Zero,
			Sheet:       "default",
		}
	}
	if err := services.SaveCatalog(app, services.NewCatalog(items)); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	log.Printf("seed: inserted %d catalog items\n", len(items))
	return nil
}
