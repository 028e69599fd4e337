package store

import (
	"context"
	"fmt"

	"PriceSentinel/internal/model"
)

// MemoryStore keeps products in process memory. Used when no database path
// is configured, and in tests.
type MemoryStore struct {
	*hub
	products map[string]model.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{hub: newHub(), products: map[string]model.Product{}}
}

func (s *MemoryStore) Upsert(_ context.Context, p model.Product) error {
	if p.URL == "" {
		return fmt.Errorf("upsert: %w: empty url", ErrInvalidProduct)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("upsert: %w: closed", ErrStore)
	}
	s.products[p.URL] = p
	s.publish(s.snapshot())
	return nil
}

func (s *MemoryStore) ListOnce(_ context.Context) ([]model.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("list: %w: closed", ErrStore)
	}
	return s.snapshot(), nil
}

func (s *MemoryStore) Subscribe(ctx context.Context) (<-chan []model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscribe(ctx, s.snapshot()), nil
}

func (s *MemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("clear: %w: closed", ErrStore)
	}
	s.products = map[string]model.Product{}
	s.publish(s.snapshot())
	return nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdown()
	return nil
}

func (s *MemoryStore) snapshot() []model.Product {
	out := make([]model.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sortSnapshot(out)
	return out
}
