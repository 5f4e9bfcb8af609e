package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"utilitybilling/services"
)

// Setup programmatically creates/ensures the boq_lines and catalog_items
// collections exist.
func Setup(app *pocketbase.PocketBase) {
	ensureCollection(app, services.BOQLinesCollection, func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "session", Required: true})
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: true})
		c.Fields.Add(&core.TextField{Name: "item_name", Required: true})
		c.Fields.Add(&core.NumberField{Name: "quantity"})
		c.Fields.Add(&core.TextField{Name: "unit"})
		c.Fields.Add(&core.NumberField{Name: "unit_price"})
		c.Fields.Add(&core.NumberField{Name: "total"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_boq_lines_session_item", true, "session, item_name", "")
	})

	ensureCollection(app, services.CatalogItemsCollection, func(c *core.Collection) {
		c.Fields.Add(&core.NumberField{Name: "sort_order", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "unit"})
		c.Fields.Add(&core.NumberField{Name: "unit_rate"})
		c.Fields.Add(&core.TextField{Name: "sheet"})
	})
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app *pocketbase.PocketBase, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
