package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// BOQLineEntry is one priced row of the current BOQ. Total is always
// Quantity * UnitPrice.
type BOQLineEntry struct {
	ItemName  string
	Quantity  decimal.Decimal
	Unit      string
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// LineInput is the user-supplied part of a line entry.
type LineInput struct {
	ItemName  string          `validate:"required" label:"Item Name"`
	Quantity  decimal.Decimal `validate:"gte=0" label:"Quantity"`
	Unit      string          `label:"Unit"`
	UnitPrice decimal.Decimal `validate:"gte=0" label:"Unit Price"`
}

// Entry validates in and derives the full entry.
func (in LineInput) Entry() (BOQLineEntry, error) {
	in.ItemName = strings.TrimSpace(in.ItemName)
	in.Unit = strings.TrimSpace(in.Unit)
	if err := validate().Struct(in); err != nil {
		return BOQLineEntry{}, describeValidation(err)
	}
	return BOQLineEntry{
		ItemName:  in.ItemName,
		Quantity:  in.Quantity,
		Unit:      in.Unit,
		UnitPrice: in.UnitPrice,
		Total:     LineTotal(in.Quantity, in.UnitPrice),
	}, nil
}

// LineStore is the ordered, name-keyed collection of BOQ line entries.
// Positions are 1-based and follow insertion order.
type LineStore interface {
	// Upsert replaces the entry named in.ItemName in place, or appends it.
	// created reports whether a new entry was appended.
	Upsert(ctx context.Context, in LineInput) (entry BOQLineEntry, created bool, err error)
	// DeleteAt removes the entry at position, shifting later entries up.
	DeleteAt(ctx context.Context, position int) (BOQLineEntry, error)
	List(ctx context.Context) ([]BOQLineEntry, error)
	GrandTotal(ctx context.Context) (decimal.Decimal, error)
}

func positionError(position, count int) error {
	return fmt.Errorf("position %d not in [1, %d]: %w", position, count, ErrIndexOutOfRange)
}

// MemoryLineStore keeps line entries in process memory.
type MemoryLineStore struct {
	mu      sync.Mutex
	entries []BOQLineEntry
}

var _ LineStore = (*MemoryLineStore)(nil)

// NewMemoryLineStore returns an empty store.
func NewMemoryLineStore() *MemoryLineStore {
	return &MemoryLineStore{}
}

func (s *MemoryLineStore) Upsert(_ context.Context, in LineInput) (BOQLineEntry, bool, error) {
	entry, err := in.Entry()
	if err != nil {
		return BOQLineEntry{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].ItemName == entry.ItemName {
			s.entries[i] = entry
			return entry, false, nil
		}
	}
	s.entries = append(s.entries, entry)
	return entry, true, nil
}

func (s *MemoryLineStore) DeleteAt(_ context.Context, position int) (BOQLineEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 1 || position > len(s.entries) {
		return BOQLineEntry{}, positionError(position, len(s.entries))
	}
	removed := s.entries[position-1]
	s.entries = append(s.entries[:position-1], s.entries[position:]...)
	return removed, nil
}

func (s *MemoryLineStore) List(_ context.Context) ([]BOQLineEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]BOQLineEntry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

func (s *MemoryLineStore) GrandTotal(_ context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SumLineTotals(s.entries), nil
}
