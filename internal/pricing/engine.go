package pricing

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned for a line whose quantity is not positive.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	// ErrInvalidDiscount is returned for an unknown discount type or a negative value.
	ErrInvalidDiscount = errors.New("invalid discount")
	// ErrInvalidPrice is returned when the unit price is negative.
	ErrInvalidPrice = errors.New("unit price must not be negative")
)

// DiscountType identifies how a discount value is interpreted.
type DiscountType string

const (
	// DiscountFlat subtracts an amount ("$").
	DiscountFlat DiscountType = "$"
	// DiscountPercent takes a percentage off ("%").
	DiscountPercent DiscountType = "%"
	// DiscountBulk marks the synthetic descriptor reported when a tier applied.
	DiscountBulk DiscountType = "Bulk"
)

// Discount is a manual discount or the descriptor of an applied tier.
type Discount struct {
	Type  DiscountType
	Value decimal.Decimal
}

// Tier is a bulk pricing row. Pricing is an absolute unit price for "$"
// tiers and a percentage for "%" tiers.
type Tier struct {
	ItemID   int64
	Quantity int
	Pricing  decimal.Decimal
	Type     DiscountType
}

// Line is a resolved line. Amounts keep full precision.
type Line struct {
	UnitPrice      decimal.Decimal
	FinalUnitPrice decimal.Decimal
	Quantity       int
	Discount       *Discount
	FinalPrice     decimal.Decimal
	BulkApplied    bool
}

// SelectTier returns the tier of itemID whose quantity equals qty. Only exact
// matches count; the first matching row wins.
func SelectTier(tiers []Tier, itemID int64, qty int) *Tier {
	for i := range tiers {
		t := tiers[i]
		if t.ItemID == itemID && t.Quantity == qty {
			return &t
		}
	}
	return nil
}

// ResolveLine prices qty units at unit. A tier always wins over a manual
// discount. Results never go below zero.
func ResolveLine(unit decimal.Decimal, qty int, tier *Tier, manual *Discount) (Line, error) {
	if qty <= 0 {
		return Line{}, ErrInvalidQuantity
	}
	if unit.IsNegative() {
		return Line{}, ErrInvalidPrice
	}
	q := decimal.NewFromInt(int64(qty))
	line := Line{UnitPrice: unit, FinalUnitPrice: unit, Quantity: qty}

	if tier != nil {
		if tier.Pricing.IsNegative() {
			return Line{}, ErrInvalidDiscount
		}
		switch tier.Type {
		case DiscountFlat:
			line.FinalUnitPrice = tier.Pricing
			line.Discount = &Discount{Type: DiscountBulk, Value: clampZero(unit.Sub(tier.Pricing).Mul(q))}
		case DiscountPercent:
			perUnit := percentOf(unit, tier.Pricing)
			if perUnit.GreaterThan(unit) {
				perUnit = unit
			}
			line.FinalUnitPrice = unit.Sub(perUnit)
			line.Discount = &Discount{Type: DiscountBulk, Value: perUnit.Mul(q)}
		default:
			return Line{}, ErrInvalidDiscount
		}
		line.FinalPrice = line.FinalUnitPrice.Mul(q)
		line.BulkApplied = true
		return line, nil
	}

	gross := unit.Mul(q)
	line.FinalPrice = gross
	if manual == nil || (manual.Type == "" && manual.Value.IsZero()) {
		return line, nil
	}
	if manual.Value.IsNegative() {
		return Line{}, ErrInvalidDiscount
	}
	switch manual.Type {
	case DiscountPercent:
		line.FinalPrice = clampZero(gross.Sub(percentOf(gross, manual.Value)))
	case DiscountFlat:
		line.FinalPrice = clampZero(gross.Sub(manual.Value))
	default:
		return Line{}, ErrInvalidDiscount
	}
	line.Discount = &Discount{Type: manual.Type, Value: manual.Value}
	return line, nil
}
