package store

import (
	"github.com/shopspring/decimal"

	"github.com/safar/go-commerce/internal/config"
)

// PriceLine is one validated cart line ready for pricing.
type PriceLine struct {
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
}

type QuotedLine struct {
	ProductID  int64
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice decimal.Decimal
}

type Quote struct {
	Lines       []QuotedLine
	Subtotal    decimal.Decimal
	ShippingFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// Pricer computes order totals from validated lines. It is a pure
// calculator: no storage access, no side effects.
//
// Rounding rule: every monetary amount that is persisted (each line's
// total_price, the tax, the total) is rounded half-away-from-zero to two
// decimal places at the point it is produced. The subtotal is the exact sum
// of the already-rounded line totals, so the stored invariant
// total == sum(total_price) + shipping_fee + tax holds to the cent.
type Pricer struct {
	freeShippingThreshold decimal.Decimal
	flatShippingFee       decimal.Decimal
	taxRate               decimal.Decimal
}

func NewPricer(cfg config.PricingConfig) *Pricer {
	return &Pricer{
		freeShippingThreshold: cfg.FreeShippingThreshold,
		flatShippingFee:       cfg.FlatShippingFee,
		taxRate:               cfg.TaxRate,
	}
}

func (p *Pricer) Quote(lines []PriceLine) Quote {
	quote := Quote{
		Lines: make([]QuotedLine, 0, len(lines)),
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		lineTotal := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(lineTotal)

		quote.Lines = append(quote.Lines, QuotedLine{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice,
			TotalPrice: lineTotal,
		})
	}

	shippingFee := p.flatShippingFee
	if subtotal.GreaterThanOrEqual(p.freeShippingThreshold) {
		shippingFee = decimal.Zero
	}

	tax := subtotal.Mul(p.taxRate).Round(2)

	quote.Subtotal = subtotal
	quote.ShippingFee = shippingFee
	quote.Tax = tax
	quote.Total = subtotal.Add(shippingFee).Add(tax).Round(2)

	return quote
}
