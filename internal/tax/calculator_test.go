package tax

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestCalculate(t *testing.T) {
	cases := []struct {
		name     string
		in       Input
		subtotal string
		tax      string
		total    string
	}{
		{
			name:     "exclusive",
			in:       Input{Cost: d("100"), Rate: d("0.10")},
			subtotal: "100", tax: "10", total: "110",
		},
		{
			name:     "inclusive",
			in:       Input{Cost: d("110"), Included: true, Rate: d("0.10")},
			subtotal: "100", tax: "10", total: "110",
		},
		{
			name:     "exclusive half cent rounds up",
			in:       Input{Cost: d("85"), Rate: d("0.10")},
			subtotal: "85", tax: "8.50", total: "93.50",
		},
		{
			name:     "exclusive rounds half away from zero",
			in:       Input{Cost: d("0.25"), Rate: d("0.10")},
			subtotal: "0.25", tax: "0.03", total: "0.28",
		},
		{
			name:     "exclusive with discount",
			in:       Input{Cost: d("200"), Rate: d("0.15"), Discount: d("20")},
			subtotal: "200", tax: "27", total: "207",
		},
		{
			name:     "inclusive ignores discount",
			in:       Input{Cost: d("100"), Included: true, Rate: d("0.15"), Discount: d("50")},
			subtotal: "86.96", tax: "13.04", total: "100",
		},
		{
			name:     "zero rate",
			in:       Input{Cost: d("49.99"), Rate: decimal.Zero},
			subtotal: "49.99", tax: "0", total: "49.99",
		},
		{
			name:     "zero cost",
			in:       Input{Cost: decimal.Zero, Included: true, Rate: d("0.10")},
			subtotal: "0", tax: "0", total: "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Calculate(tc.in)
			require.NoError(t, err)
			assert.True(t, got.Subtotal.Equal(d(tc.subtotal)), "subtotal %s", got.Subtotal)
			assert.True(t, got.TaxAmount.Equal(d(tc.tax)), "tax %s", got.TaxAmount)
			assert.True(t, got.Total.Equal(d(tc.total)), "total %s", got.Total)
		})
	}
}

func TestCalculateTotalsAddUp(t *testing.T) {
	for _, cost := range []string{"0.01", "1.05", "19.99", "333.33", "1000"} {
		for _, included := range []bool{true, false} {
			got, err := Calculate(Input{Cost: d(cost), Included: included, Rate: d("0.0825")})
			require.NoError(t, err)
			assert.True(t, got.Total.Equal(got.Subtotal.Sub(got.Discount).Add(got.TaxAmount)), "cost %s included %v", cost, included)
		}
	}
}

func TestCalculateRejectsInvalidInput(t *testing.T) {
	_, err := Calculate(Input{Cost: d("-1"), Rate: d("0.1")})
	assert.ErrorIs(t, err, ErrNegativeCost)

	_, err = Calculate(Input{Cost: d("10"), Rate: d("-0.1")})
	assert.ErrorIs(t, err, ErrNegativeRate)

	_, err = Calculate(Input{Cost: d("10"), Rate: d("0.1"), Discount: d("-2")})
	assert.ErrorIs(t, err, ErrNegativeDiscount)

	_, err = Calculate(Input{Cost: d("10"), Rate: d("0.1"), Discount: d("10.01")})
	assert.ErrorIs(t, err, ErrDiscountTooLarge)
}

func TestModeOf(t *testing.T) {
	assert.Equal(t, ModeInclusive, ModeOf(true))
	assert.Equal(t, ModeExclusive, ModeOf(false))
}
