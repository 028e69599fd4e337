package collector

import (
	"context"
	"fmt"
	"sync"

	"PriceSentinel/internal/model"
)

// MockFetcher returns scripted quotes and errors for development and testing.
// Results are consumed per URL in order; once a script is exhausted its last
// entry repeats. URLs without a script fall back to Quote.
type MockFetcher struct {
	mu      sync.Mutex
	Quote   model.Quote
	scripts map[string][]MockResult
	calls   map[string]int
	order   []string
}

// MockResult is one scripted answer.
type MockResult struct {
	Quote *model.Quote
	Err   error
}

func (m *MockFetcher) Name() string { return "mock" }

// Script queues results for a URL.
func (m *MockFetcher) Script(productURL string, results ...MockResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.scripts == nil {
		m.scripts = map[string][]MockResult{}
	}
	m.scripts[productURL] = append(m.scripts[productURL], results...)
}

// Calls reports how many times a URL was fetched.
func (m *MockFetcher) Calls(productURL string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[productURL]
}

// Order returns the URLs in the order they were fetched.
func (m *MockFetcher) Order() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

func (m *MockFetcher) FetchPrice(ctx context.Context, productURL string) (*model.Quote, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrNetwork, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	n := m.calls[productURL]
	m.calls[productURL] = n + 1
	m.order = append(m.order, productURL)

	script := m.scripts[productURL]
	if len(script) == 0 {
		q := m.Quote
		return &q, nil
	}
	if n >= len(script) {
		n = len(script) - 1
	}
	res := script[n]
	if res.Err != nil {
		return nil, res.Err
	}
	q := *res.Quote
	return &q, nil
}
