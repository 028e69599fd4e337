package collector

import (
	"context"

	"PriceSentinel/internal/model"
)

// Fetcher defines the interface for looking up a product's current price.
// Errors wrap model.ErrHostResolution, model.ErrNetwork or model.ErrParse.
type Fetcher interface {
	FetchPrice(ctx context.Context, productURL string) (*model.Quote, error)
	Name() string
}
