package pricing

import "github.com/shopspring/decimal"

const (
	coinsPerBlock  = 10000
	creditPerBlock = 5
)

// BillLine is one priced line as seen by the bill. FinalPrice is expected to
// be rounded to cents already.
type BillLine struct {
	FinalPrice decimal.Decimal
	Taxable    bool
}

// CustomLine is an ad-hoc product that is not in the catalog.
type CustomLine struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Taxable   bool
}

// Bill is the assembled bill. Values keep full precision; round on output.
type Bill struct {
	Subtotal      decimal.Decimal
	CoinsDiscount decimal.Decimal
	TaxableAmount decimal.Decimal
	TaxBase       decimal.Decimal
	TaxRate       decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
}

// CoinsDiscount converts a loyalty balance into a credit: 5 per full block of
// 10000 coins, nothing below one block.
func CoinsDiscount(coins int64) decimal.Decimal {
	if coins < coinsPerBlock {
		return decimal.Zero
	}
	return decimal.NewFromInt((coins / coinsPerBlock) * creditPerBlock)
}

// ResolveCustomLine prices an ad-hoc line: unit × quantity, no discounts.
func ResolveCustomLine(c CustomLine) (BillLine, error) {
	if c.Quantity <= 0 {
		return BillLine{}, ErrInvalidQuantity
	}
	if c.UnitPrice.IsNegative() {
		return BillLine{}, ErrInvalidPrice
	}
	return BillLine{
		FinalPrice: Round2(c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Quantity)))),
		Taxable:    c.Taxable,
	}, nil
}

// CalculateBill sums the lines, subtracts the coins credit (nil coins means no
// resolved loyalty account) and applies taxRate percent to the taxable part.
// The credit is capped at the subtotal and is taken from taxable lines first.
func CalculateBill(lines []BillLine, coins *int64, taxRate decimal.Decimal) Bill {
	subtotal := decimal.Zero
	taxableSubtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.FinalPrice)
		if l.Taxable {
			taxableSubtotal = taxableSubtotal.Add(l.FinalPrice)
		}
	}

	discount := decimal.Zero
	if coins != nil {
		discount = CoinsDiscount(*coins)
	}
	if discount.GreaterThan(subtotal) {
		discount = clampZero(subtotal)
	}

	taxBase := clampZero(taxableSubtotal.Sub(discount))
	tax := percentOf(taxBase, taxRate)
	taxable := subtotal.Sub(discount)

	return Bill{
		Subtotal:      subtotal,
		CoinsDiscount: discount,
		TaxableAmount: taxable,
		TaxBase:       taxBase,
		TaxRate:       taxRate,
		Tax:           tax,
		Total:         taxable.Add(tax),
	}
}
