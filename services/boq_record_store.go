package services

import (
	"context"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"
)

// BOQLinesCollection stores session-scoped BOQ line entries.
const BOQLinesCollection = "boq_lines"

// RecordLineStore is a LineStore backed by the boq_lines collection, scoped
// to one browser session.
type RecordLineStore struct {
	app     core.App
	session string
}

var _ LineStore = (*RecordLineStore)(nil)

// NewRecordLineStore returns the store for session.
func NewRecordLineStore(app core.App, session string) *RecordLineStore {
	return &RecordLineStore{app: app, session: session}
}

// records returns the session's line records in position order.
func (s *RecordLineStore) records() ([]*core.Record, error) {
	records, err := s.app.FindRecordsByFilter(
		BOQLinesCollection,
		"session = {:session}",
		"sort_order",
		0,
		0,
		map[string]any{"session": s.session},
	)
	if err != nil {
		return nil, fmt.Errorf("list boq lines: %w", err)
	}
	return records, nil
}

// RecordToLineEntry converts a boq_lines record. Amounts are stored in
// number fields; NewFromFloat recovers the shortest decimal for each, which
// is exact for values of up to 15 significant digits.
func RecordToLineEntry(r *core.Record) BOQLineEntry {
	return BOQLineEntry{
		ItemName:  r.GetString("item_name"),
		Quantity:  decimal.NewFromFloat(r.GetFloat("quantity")),
		Unit:      r.GetString("unit"),
		UnitPrice: decimal.NewFromFloat(r.GetFloat("unit_price")),
		Total:     decimal.NewFromFloat(r.GetFloat("total")),
	}
}

func setLineFields(r *core.Record, e BOQLineEntry) {
	r.Set("item_name", e.ItemName)
	r.Set("quantity", e.Quantity.InexactFloat64())
	r.Set("unit", e.Unit)
	r.Set("unit_price", e.UnitPrice.InexactFloat64())
	r.Set("total", e.Total.InexactFloat64())
}

func (s *RecordLineStore) Upsert(_ context.Context, in LineInput) (BOQLineEntry, bool, error) {
	entry, err := in.Entry()
	if err != nil {
		return BOQLineEntry{}, false, err
	}

	created := false
	err = s.app.RunInTransaction(func(txApp core.App) error {
		tx := &RecordLineStore{app: txApp, session: s.session}
		records, err := tx.records()
		if err != nil {
			return err
		}

		nextOrder := 1
		for _, r := range records {
			if r.GetString("item_name") == entry.ItemName {
				setLineFields(r, entry)
				return txApp.Save(r)
			}
			if o := r.GetInt("sort_order"); o >= nextOrder {
				nextOrder = o + 1
			}
		}

		col, err := txApp.FindCollectionByNameOrId(BOQLinesCollection)
		if err != nil {
			return fmt.Errorf("collection not found: %w", err)
		}
		record := core.NewRecord(col)
		record.Set("session", s.session)
		record.Set("sort_order", nextOrder)
		setLineFields(record, entry)
		if err := txApp.Save(record); err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return BOQLineEntry{}, false, fmt.Errorf("upsert %q: %w", entry.ItemName, err)
	}
	return entry, created, nil
}

func (s *RecordLineStore) DeleteAt(_ context.Context, position int) (BOQLineEntry, error) {
	records, err := s.records()
	if err != nil {
		return BOQLineEntry{}, err
	}
	if position < 1 || position > len(records) {
		return BOQLineEntry{}, positionError(position, len(records))
	}
	target := records[position-1]
	if err := s.app.Delete(target); err != nil {
		return BOQLineEntry{}, fmt.Errorf("delete line %d: %w", position, err)
	}
	return RecordToLineEntry(target), nil
}

func (s *RecordLineStore) List(_ context.Context) ([]BOQLineEntry, error) {
	records, err := s.records()
	if err != nil {
		return nil, err
	}
	out := make([]BOQLineEntry, len(records))
	for i, r := range records {
		out[i] = RecordToLineEntry(r)
	}
	return out, nil
}

func (s *RecordLineStore) GrandTotal(ctx context.Context) (decimal.Decimal, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	return SumLineTotals(entries), nil
}
