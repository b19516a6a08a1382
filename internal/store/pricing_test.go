package store

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/safar/go-commerce/internal/config"
)

func testPricer() *Pricer {
	return NewPricer(config.PricingConfig{
		FreeShippingThreshold: decimal.NewFromInt(100),
		FlatShippingFee:       decimal.NewFromInt(10),
		TaxRate:               decimal.NewFromFloat(0.10),
	})
}

func TestQuoteBelowFreeShippingThreshold(t *testing.T) {
	quote := testPricer().Quote([]PriceLine{
		{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("20.00")},
	})

	assert.Equal(t, "60.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "10.00", quote.ShippingFee.StringFixed(2))
	assert.Equal(t, "6.00", quote.Tax.StringFixed(2))
	assert.Equal(t, "76.00", quote.Total.StringFixed(2))

	require.Len(t, quote.Lines, 1)
	assert.Equal(t, "60.00", quote.Lines[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "20.00", quote.Lines[0].UnitPrice.StringFixed(2))
}

func TestQuoteFreeShippingAtThreshold(t *testing.T) {
	quote := testPricer().Quote([]PriceLine{
		{ProductID: 1, Quantity: 4, UnitPrice: decimal.RequireFromString("25.00")},
	})

	assert.Equal(t, "100.00", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "0.00", quote.ShippingFee.StringFixed(2))
	assert.Equal(t, "10.00", quote.Tax.StringFixed(2))
	assert.Equal(t, "110.00", quote.Total.StringFixed(2))
}

func TestQuoteJustUnderThresholdPaysShipping(t *testing.T) {
	quote := testPricer().Quote([]PriceLine{
		{ProductID: 1, Quantity: 1, UnitPrice: decimal.RequireFromString("99.99")},
	})

	assert.Equal(t, "10.00", quote.ShippingFee.StringFixed(2))
	assert.Equal(t, "10.00", quote.Tax.StringFixed(2))
	assert.Equal(t, "119.99", quote.Total.StringFixed(2))
}

func TestQuoteRoundsTaxHalfAwayFromZero(t *testing.T) {
	// 3 x 19.99 = 59.97, tax 5.997 rounds up to 6.00
	quote := testPricer().Quote([]PriceLine{
		{ProductID: 1, Quantity: 3, UnitPrice: decimal.RequireFromString("19.99")},
	})

	assert.Equal(t, "59.97", quote.Subtotal.StringFixed(2))
	assert.Equal(t, "6.00", quote.Tax.StringFixed(2))
	assert.Equal(t, "75.97", quote.Total.StringFixed(2))
}

func TestQuoteTotalMatchesLineInvariant(t *testing.T) {
	quote := testPricer().Quote([]PriceLine{
		{ProductID: 1, Quantity: 2, UnitPrice: decimal.RequireFromString("12.34")},
		{ProductID: 2, Quantity: 5, UnitPrice: decimal.RequireFromString("0.99")},
		{ProductID: 3, Quantity: 1, UnitPrice: decimal.RequireFromString("7.50")},
	})

	sum := decimal.Zero
	for _, line := range quote.Lines {
		sum = sum.Add(line.TotalPrice)
	}

	expected := sum.Add(quote.ShippingFee).Add(quote.Tax)
	assert.True(t, quote.Total.Equal(expected),
		"total %s != sum(lines) + shipping + tax = %s", quote.Total, expected)
}

func TestQuotePerLineTotals(t *testing.T) {
	quote := testPricer().Quote([]PriceLine{
		{ProductID: 1, Quantity: 7, UnitPrice: decimal.RequireFromString("1.05")},
		{ProductID: 2, Quantity: 2, UnitPrice: decimal.RequireFromString("3.33")},
	})

	require.Len(t, quote.Lines, 2)
	assert.Equal(t, "7.35", quote.Lines[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "6.66", quote.Lines[1].TotalPrice.StringFixed(2))
	assert.Equal(t, "14.01", quote.Subtotal.StringFixed(2))
}

func TestQuoteEmptyLines(t *testing.T) {
	quote := testPricer().Quote(nil)

	assert.True(t, quote.Subtotal.IsZero())
	assert.Equal(t, "10.00", quote.ShippingFee.StringFixed(2))
	assert.True(t, quote.Tax.IsZero())
	assert.Equal(t, "10.00", quote.Total.StringFixed(2))
	assert.Empty(t, quote.Lines)
}
