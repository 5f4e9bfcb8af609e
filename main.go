package main

import (
	"log"
	"net/http"
	"os"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"utilitybilling/collections"
	"utilitybilling/config"
	"utilitybilling/handlers"
	"utilitybilling/services"
)

// loadCatalogFile replaces the stored catalog with the workbook at path.
func loadCatalogFile(app *pocketbase.PocketBase, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	catalog, err := services.LoadCatalog(f, app.Logger())
	if err != nil {
		return err
	}
	if err := services.SaveCatalog(app, catalog); err != nil {
		return err
	}
	log.Printf("catalog: loaded %d items from %s", catalog.Len(), path)
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	app := pocketbase.New()

	// Create collections and seed data on startup
	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		collections.Setup(app)
		if cfg.SeedCatalog {
			if err := collections.Seed(app); err != nil {
				log.Printf("Warning: seed data failed: %v", err)
			}
		}
		if err := collections.MigrateLineTotals(app); err != nil {
			log.Printf("Warning: line total migration failed: %v", err)
		}
		if cfg.CatalogPath != "" {
			if err := loadCatalogFile(app, cfg.CatalogPath); err != nil {
				log.Printf("Warning: catalog %s not loaded: %v", cfg.CatalogPath, err)
			}
		}
		return se.Next()
	})

	app.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.GET("/static/{path...}", apis.Static(os.DirFS("./static"), false))

		se.Router.BindFunc(handlers.BOQSessionMiddleware())

		// ── Electricity billing ──────────────────────────────────
		se.Router.GET("/billing", handlers.HandleBillingPage(app, cfg))
		se.Router.POST("/billing/calculate", handlers.HandleBillingCalculate(app, cfg))
		for _, format := range []string{handlers.FormatExcel, handlers.FormatCSV, handlers.FormatPDF} {
			se.Router.POST("/billing/export/"+format, handlers.HandleBillingExport(app, cfg, format))
		}

		// ── BOQ ──────────────────────────────────────────────────
		se.Router.GET("/boq", handlers.HandleBOQPage(app))
		se.Router.POST("/boq/catalog", handlers.HandleCatalogUpload(app, cfg))
		se.Router.GET("/boq/catalog/search", handlers.HandleCatalogSearch(app))
		se.Router.POST("/boq/items", handlers.HandleBOQUpsert(app))
		se.Router.POST("/boq/items/delete", handlers.HandleBOQDelete(app))
		for _, format := range []string{handlers.FormatExcel, handlers.FormatPDF} {
			se.Router.GET("/boq/export/"+format, handlers.HandleBOQExport(app, format))
		}

		// Redirect home to billing
		se.Router.GET("/", func(e *core.RequestEvent) error {
			return e.Redirect(http.StatusFound, "/billing")
		})

		return se.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}
