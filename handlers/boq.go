package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"utilitybilling/config"
	"utilitybilling/services"
	"utilitybilling/templates"
)

// maxCatalogSuggestions caps the datalist returned by catalog search.
const maxCatalogSuggestions = 25

// buildBOQPageData loads the session's lines and the catalog size.
func buildBOQPageData(app *pocketbase.PocketBase, e *core.RequestEvent) (templates.BOQPageData, error) {
	store := services.NewRecordLineStore(app, boqSession(e))
	entries, err := store.List(e.Request.Context())
	if err != nil {
		return templates.BOQPageData{}, err
	}

	data := templates.BOQPageData{
		GrandTotal: services.FormatRupees(services.SumLineTotals(entries)),
	}
	for i, en := range entries {
		data.Rows = append(data.Rows, templates.BOQRowView{
			Position:  i + 1,
			ItemName:  en.ItemName,
			Quantity:  en.Quantity.String(),
			Unit:      en.Unit,
			UnitPrice: services.FormatRupees(en.UnitPrice),
			Total:     services.FormatRupees(en.Total),
		})
	}

	catalog, err := services.LoadStoredCatalog(app)
	if err != nil {
		log.Printf("boq: could not load catalog: %v", err)
	} else {
		data.CatalogCount = catalog.Len()
	}
	return data, nil
}

// renderBOQTable re-renders the line table after a change.
func renderBOQTable(app *pocketbase.PocketBase, e *core.RequestEvent) error {
	if e.Request.Header.Get("HX-Request") != "true" {
		return e.Redirect(http.StatusSeeOther, "/boq")
	}
	data, err := buildBOQPageData(app, e)
	if err != nil {
		log.Printf("boq: %v", err)
		return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
	}
	return templates.BOQTable(data).Render(e.Request.Context(), e.Response)
}

// HandleBOQPage renders the current BOQ for the session.
// Route: GET /boq
func HandleBOQPage(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		data, err := buildBOQPageData(app, e)
		if err != nil {
			log.Printf("boq_page: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		if e.Request.Header.Get("HX-Request") == "true" {
			return templates.BOQContent(data).Render(e.Request.Context(), e.Response)
		}
		return templates.BOQPage(data).Render(e.Request.Context(), e.Response)
	}
}

// HandleCatalogUpload replaces the item catalog with the uploaded workbook.
// Route: POST /boq/catalog
func HandleCatalogUpload(app *pocketbase.PocketBase, cfg *config.Config) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		e.Request.Body = http.MaxBytesReader(e.Response, e.Request.Body, cfg.UploadMaxBytes)
		if err := e.Request.ParseMultipartForm(cfg.UploadMaxBytes); err != nil {
			return ErrorToast(e, http.StatusBadRequest, "File too large or invalid form data")
		}

		file, _, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		catalog, err := services.LoadCatalog(file, app.Logger())
		if err != nil {
			log.Printf("catalog_upload: %v", err)
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}
		if err := services.SaveCatalog(app, catalog); err != nil {
			log.Printf("catalog_upload: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Failed to save catalog")
		}

		log.Printf("catalog_upload: stored %d items", catalog.Len())
		SetToast(e, ToastSuccess, fmt.Sprintf("Loaded %d catalog items", catalog.Len()))
		if e.Request.Header.Get("HX-Request") == "true" {
			e.Response.Header().Set("HX-Redirect", "/boq")
			return e.NoContent(http.StatusOK)
		}
		return e.Redirect(http.StatusSeeOther, "/boq")
	}
}

// HandleCatalogSearch returns datalist options for descriptions containing
// the query. The item name field is used when q is absent.
// Route: GET /boq/catalog/search?q=
func HandleCatalogSearch(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		query := e.Request.URL.Query()
		term := query.Get("q")
		if !query.Has("q") {
			term = query.Get("item_name")
		}

		catalog, err := services.LoadStoredCatalog(app)
		if err != nil {
			log.Printf("catalog_search: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		hits := catalog.Search(term)
		if len(hits) > maxCatalogSuggestions {
			hits = hits[:maxCatalogSuggestions]
		}
		return templates.CatalogOptions(hits).Render(e.Request.Context(), e.Response)
	}
}

// parseLineInput reads the add-item form. Blank unit and unit price are
// filled from the catalog entry with the same description.
func parseLineInput(app *pocketbase.PocketBase, e *core.RequestEvent) (services.LineInput, error) {
	in := services.LineInput{
		ItemName: strings.TrimSpace(e.Request.FormValue("item_name")),
		Unit:     strings.TrimSpace(e.Request.FormValue("unit")),
	}

	var err error
	if in.Quantity, _, err = formDecimal(e, "quantity", "Quantity"); err != nil {
		return in, err
	}
	rawPrice := strings.TrimSpace(e.Request.FormValue("unit_price"))
	if in.UnitPrice, _, err = formDecimal(e, "unit_price", "Unit Price"); err != nil {
		return in, err
	}

	if in.Unit != "" && rawPrice != "" {
		return in, nil
	}
	catalog, err := services.LoadStoredCatalog(app)
	if err != nil {
		log.Printf("boq_upsert: could not load catalog: %v", err)
		return in, nil
	}
	if item, ok := catalog.Lookup(in.ItemName); ok {
		if in.Unit == "" {
			in.Unit = item.Unit
		}
		if rawPrice == "" {
			in.UnitPrice = item.UnitRate
		}
	}
	return in, nil
}

// HandleBOQUpsert adds an item or updates the existing item of the same name.
// Route: POST /boq/items
func HandleBOQUpsert(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		in, err := parseLineInput(app, e)
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, err.Error())
		}

		store := services.NewRecordLineStore(app, boqSession(e))
		entry, created, err := store.Upsert(e.Request.Context(), in)
		if err != nil {
			if errors.Is(err, services.ErrInvalidInput) {
				return ErrorToast(e, http.StatusBadRequest, err.Error())
			}
			log.Printf("boq_upsert: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		if created {
			SetToast(e, ToastSuccess, fmt.Sprintf("Added %s", entry.ItemName))
		} else {
			SetToast(e, ToastSuccess, fmt.Sprintf("Updated %s", entry.ItemName))
		}
		return renderBOQTable(app, e)
	}
}

// HandleBOQDelete removes the line at the posted 1-based position.
// Route: POST /boq/items/delete
func HandleBOQDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		position, err := strconv.Atoi(strings.TrimSpace(e.Request.FormValue("position")))
		if err != nil {
			return ErrorToast(e, http.StatusBadRequest, "Invalid item position")
		}

		store := services.NewRecordLineStore(app, boqSession(e))
		removed, err := store.DeleteAt(e.Request.Context(), position)
		if err != nil {
			if errors.Is(err, services.ErrIndexOutOfRange) {
				return ErrorToast(e, http.StatusBadRequest, fmt.Sprintf("No item at position %d", position))
			}
			log.Printf("boq_delete: %v", err)
			return ErrorToast(e, http.StatusInternalServerError, "Something went wrong. Please try again.")
		}

		SetToast(e, ToastSuccess, fmt.Sprintf("Removed %s", removed.ItemName))
		return renderBOQTable(app, e)
	}
}
