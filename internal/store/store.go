package store

import (
	"context"
	"errors"
	"sort"

	"PriceSentinel/internal/model"
)

// ErrStore marks persistence failures. A run that hits one reports Failure.
var ErrStore = errors.New("store unavailable")

// ErrInvalidProduct is returned when a product cannot be keyed.
var ErrInvalidProduct = errors.New("invalid product")

// Store is the persistent collection of tracked products, keyed by URL.
type Store interface {
	// Upsert inserts or replaces the whole record for p.URL.
	Upsert(ctx context.Context, p model.Product) error
	// ListOnce returns the current snapshot, newest observation first.
	ListOnce(ctx context.Context) ([]model.Product, error)
	// Subscribe delivers the current snapshot immediately and a fresh one after
	// every committed Upsert or ClearAll. The channel closes when ctx is done
	// or the store is closed.
	Subscribe(ctx context.Context) (<-chan []model.Product, error)
	// ClearAll removes every record.
	ClearAll(ctx context.Context) error
	Close() error
}

// sortSnapshot orders by ObservedAt descending, ties broken by URL.
func sortSnapshot(products []model.Product) {
	sort.SliceStable(products, func(i, j int) bool {
		a, b := products[i], products[j]
		if !a.ObservedAt.Equal(b.ObservedAt) {
			return a.ObservedAt.After(b.ObservedAt)
		}
		return a.URL < b.URL
	})
}
