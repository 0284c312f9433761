package pricing

import "github.com/shopspring/decimal"

var (
	nickelsPerUnit = decimal.NewFromInt(20)
	hundred        = decimal.NewFromInt(100)
)

// CeilToNickel rounds d up to the next multiple of 0.05.
func CeilToNickel(d decimal.Decimal) decimal.Decimal {
	return d.Mul(nickelsPerUnit).Ceil().Div(nickelsPerUnit)
}

// EffectiveUnitPrice picks the charged cost when present, else the base cost,
// and rounds it up to the nearest 0.05.
func EffectiveUnitPrice(base decimal.Decimal, charged *decimal.Decimal) decimal.Decimal {
	price := base
	if charged != nil {
		price = *charged
	}
	return CeilToNickel(price)
}

// Round2 rounds half away from zero to cents.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Amount renders d as a JSON friendly number rounded to cents.
func Amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func percentOf(d, pct decimal.Decimal) decimal.Decimal {
	return d.Mul(pct).Div(hundred)
}
