package strategy

import (
	"fmt"

	"PriceSentinel/internal/calculator"
	"PriceSentinel/internal/model"
)

// Evaluate compares the stored baseline price with a freshly fetched one and
// decides whether the user should be alerted. Either price failing to parse
// returns an error wrapping model.ErrParse; callers choose whether that is
// fatal (manual lookup) or a skipped item (scheduled run).
func Evaluate(stored, fetched string) (*model.Decision, error) {
	oldPrice, err := calculator.ParsePrice(stored)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	newPrice, err := calculator.ParsePrice(fetched)
	if err != nil {
		return nil, fmt.Errorf("fetched: %w", err)
	}

	d := &model.Decision{OldPrice: oldPrice, NewPrice: newPrice}
	// Only a strict drop alerts; equal or higher prices are ignored.
	if newPrice.LessThan(oldPrice) {
		d.Notify = true
		d.DropPercent = calculator.DropPercent(oldPrice, newPrice)
	}
	return d, nil
}
