package strategy

import (
	"fmt"
	"testing"

	"PriceSentinel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Drop(t *testing.T) {
	d, err := Evaluate("100", "80")
	require.NoError(t, err)
	assert.True(t, d.Notify)
	assert.Equal(t, 20, d.DropPercent)

	d, err = Evaluate("50.5", "40.4")
	require.NoError(t, err)
	assert.True(t, d.Notify)
	assert.Equal(t, 20, d.DropPercent)
}

func TestEvaluate_Monotonic(t *testing.T) {
	for oldCents := 1; oldCents <= 300; oldCents += 7 {
		for newCents := 0; newCents <= 300; newCents += 11 {
			old := fmt.Sprintf("%d.%02d", oldCents/100, oldCents%100)
			cur := fmt.Sprintf("%d.%02d", newCents/100, newCents%100)
			d, err := Evaluate(old, cur)
			require.NoError(t, err)
			if newCents < oldCents {
				assert.True(t, d.Notify, "old=%s new=%s", old, cur)
				assert.GreaterOrEqual(t, d.DropPercent, 0)
			} else {
				assert.False(t, d.Notify, "old=%s new=%s", old, cur)
				assert.Zero(t, d.DropPercent)
			}
		}
	}
}

func TestEvaluate_EqualOrHigher(t *testing.T) {
	for _, cur := range []string{"100", "100.00", "100.01", "250"} {
		d, err := Evaluate("100", cur)
		require.NoError(t, err)
		assert.False(t, d.Notify, cur)
	}
}

func TestEvaluate_Unparseable(t *testing.T) {
	tests := []struct {
		stored, fetched string
	}{
		{"N/A", "10"},
		{"10", "agotado"},
		{"", "10"},
		{"10", ""},
	}
	for _, tt := range tests {
		d, err := Evaluate(tt.stored, tt.fetched)
		assert.Nil(t, d)
		assert.ErrorIs(t, err, model.ErrParse, "%q -> %q", tt.stored, tt.fetched)
	}
}
