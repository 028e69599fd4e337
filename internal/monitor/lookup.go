package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
	"PriceSentinel/internal/strategy"
)

// ErrInvalidURL is returned for lookups of something that is not an http(s) URL.
var ErrInvalidURL = errors.New("invalid product url")

// LookupResult is the outcome of a manual lookup.
type LookupResult struct {
	Product  model.Product
	Quote    *model.Quote
	Previous *model.Product   // nil for a newly tracked product
	Decision *model.Decision // nil when there was no usable previous baseline
}

// Lookup fetches a product's current price once and stores it as the new
// baseline. An unparseable fetched price is returned as model.ErrParse and
// nothing is written. A previous baseline that does not parse is treated as
// absent, so a lookup can always repair it.
func (m *Monitor) Lookup(ctx context.Context, rawURL string) (*LookupResult, error) {
	productURL, err := normalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	quote, err := m.Fetcher.FetchPrice(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", productURL, err)
	}
	if _, err := calculator.ParsePrice(quote.Price); err != nil {
		return nil, fmt.Errorf("lookup %s: %w", productURL, err)
	}

	previous, err := m.find(ctx, productURL)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", productURL, err)
	}

	res := &LookupResult{Quote: quote, Previous: previous}
	if previous != nil {
		d, err := strategy.Evaluate(previous.Price, quote.Price)
		if err != nil {
			log.Printf("[WARN] lookup %s: ignoring previous baseline: %v", productURL, err)
		} else {
			res.Decision = d
		}
	}

	observed := m.now()
	if previous != nil && observed.Before(previous.ObservedAt) {
		observed = previous.ObservedAt
	}
	name := quote.Name
	if name == "" {
		name = productURL
	}
	res.Product = model.Product{URL: productURL, Name: name, Price: quote.Price, ObservedAt: observed}
	if err := m.Store.Upsert(ctx, res.Product); err != nil {
		return nil, fmt.Errorf("lookup %s: %w", productURL, err)
	}
	log.Printf("[INFO] lookup %s: %s at %s %s", productURL, name, quote.Price, quote.Currency)
	return res, nil
}

func (m *Monitor) find(ctx context.Context, productURL string) (*model.Product, error) {
	products, err := m.Store.ListOnce(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if p.URL == productURL {
			cp := p
			return &cp, nil
		}
	}
	return nil, nil
}

func normalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, raw)
	}
	return s, nil
}
