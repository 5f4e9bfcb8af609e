package services

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// CatalogItemsCollection persists the uploaded item catalog.
const CatalogItemsCollection = "catalog_items"

// CatalogItem is a read-only price list entry. Description is its identity.
type CatalogItem struct {
	Description string
	Unit        string
	UnitRate    decimal.Decimal
	Sheet       string
}

// Catalog is an ordered, searchable list of catalog items.
type Catalog struct {
	items []CatalogItem
	index map[string]int
}

// NewCatalog indexes items. When descriptions repeat, Lookup returns the first.
func NewCatalog(items []CatalogItem) *Catalog {
	c := &Catalog{items: items, index: make(map[string]int, len(items))}
	for i, it := range items {
		if _, dup := c.index[it.Description]; !dup {
			c.index[it.Description] = i
		}
	}
	return c
}

// Items returns all catalog items in load order.
func (c *Catalog) Items() []CatalogItem { return c.items }

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Search returns the distinct descriptions containing term, ignoring case.
// An empty term matches everything.
func (c *Catalog) Search(term string) []string {
	term = strings.ToLower(strings.TrimSpace(term))
	seen := make(map[string]bool)
	var out []string
	for _, it := range c.items {
		if seen[it.Description] {
			continue
		}
		if strings.Contains(strings.ToLower(it.Description), term) {
			seen[it.Description] = true
			out = append(out, it.Description)
		}
	}
	return out
}

// Lookup returns the item with the exact description.
func (c *Catalog) Lookup(description string) (CatalogItem, bool) {
	i, ok := c.index[description]
	if !ok {
		return CatalogItem{}, false
	}
	return c.items[i], true
}

// LoadCatalog scans every sheet of an item workbook. The first row of each
// sheet is its header. A sheet narrower than three columns is skipped, as is
// any row with a blank cell. Column 0 is the description, 1 the unit and 2
// the rate; rows whose rate does not parse are logged and dropped.
func LoadCatalog(file io.Reader, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sheets, err := readWorkbook(file)
	if err != nil {
		return nil, fileError("read catalog file", err)
	}

	var items []CatalogItem
	for _, sh := range sheets {
		items = append(items, catalogRows(sh, logger)...)
	}
	return NewCatalog(items), nil
}

func catalogRows(sh Sheet, logger *slog.Logger) []CatalogItem {
	if len(sh.Rows) < 2 {
		return nil
	}
	width := 0
	for _, r := range sh.Rows {
		width = max(width, len(r))
	}
	if width < 3 {
		return nil
	}

	var items []CatalogItem
	for i, row := range sh.Rows[1:] {
		if hasBlankCell(row, width) {
			continue
		}
		item, err := parseCatalogRow(row)
		if err != nil {
			logger.Debug("skipping catalog row",
				"sheet", sh.Name, "row", i+2, "error", err)
			continue
		}
		item.Sheet = sh.Name
		items = append(items, item)
	}
	return items
}

func hasBlankCell(row []string, width int) bool {
	for i := 0; i < width; i++ {
		if cell(row, i) == "" {
			return true
		}
	}
	return false
}

func parseCatalogRow(row []string) (CatalogItem, error) {
	raw := cell(row, 2)
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return CatalogItem{}, fmt.Errorf("%w: rate %q: %v", ErrInvalidCatalogRow, raw, err)
	}
	return CatalogItem{
		Description: cell(row, 0),
		Unit:        cell(row, 1),
		UnitRate:    rate,
	}, nil
}

// SaveCatalog replaces the stored catalog with c.
func SaveCatalog(app core.App, c *Catalog) error {
	return app.RunInTransaction(func(txApp core.App) error {
		col, err := txApp.FindCollectionByNameOrId(CatalogItemsCollection)
		if err != nil {
			return fmt.Errorf("collection not found: %w", err)
		}
		existing, err := txApp.FindAllRecords(col)
		if err != nil {
			return fmt.Errorf("list catalog items: %w", err)
		}
		for _, r := range existing {
			if err := txApp.Delete(r); err != nil {
				return fmt.Errorf("clear catalog: %w", err)
			}
		}
		for i, it := range c.Items() {
			r := core.NewRecord(col)
			r.Set("sort_order", i+1)
			r.Set("description", it.Description)
			r.Set("unit", it.Unit)
			r.Set("unit_rate", it.UnitRate.InexactFloat64())
			r.Set("sheet", it.Sheet)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("save catalog item %q: %w", it.Description, err)
			}
		}
		return nil
	})
}

// LoadStoredCatalog reads the persisted catalog.
func LoadStoredCatalog(app core.App) (*Catalog, error) {
	records, err := app.FindRecordsByFilter(CatalogItemsCollection, "id != ''", "sort_order", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("list catalog items: %w", err)
	}
	items := make([]CatalogItem, len(records))
	for i, r := range records {
		items[i] = CatalogItem{
			Description: r.GetString("description"),
			Unit:        r.GetString("unit"),
			UnitRate:    decimal.NewFromFloat(r.GetFloat("unit_rate")),
			Sheet:       r.GetString("sheet"),
		}
	}
	return NewCatalog(items), nil
}
