package calculator

import (
	"fmt"
	"strings"

	"PriceSentinel/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ParsePrice converts a stored or fetched price string to a decimal.
// Surrounding whitespace is ignored; anything else that is not a plain
// decimal number yields an error wrapping model.ErrParse.
func ParsePrice(s string) (decimal.Decimal, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return decimal.Zero, fmt.Errorf("%w: empty price", model.ErrParse)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q is not a number", model.ErrParse, s)
	}
	return d, nil
}

// DropPercent returns floor((oldPrice - newPrice) * 100 / oldPrice).
// A non-positive oldPrice has no meaningful percentage and yields 0.
func DropPercent(oldPrice, newPrice decimal.Decimal) int {
	if !oldPrice.IsPositive() {
		return 0
	}
	num := oldPrice.Sub(newPrice).Mul(hundred)
	q, r := num.QuoRem(oldPrice, 0)
	// QuoRem truncates toward zero; step down for negative non-exact quotients.
	if !r.IsZero() && num.IsNegative() {
		q = q.Sub(decimal.NewFromInt(1))
	}
	return int(q.IntPart())
}
