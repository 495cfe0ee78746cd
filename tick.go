package lobby

import "github.com/shopspring/decimal"

// TickConverter maps decimal prices to integer ticks at a fixed precision.
// All book internals work on ticks; decimals only appear at the rim.
type TickConverter struct {
	digits int32
	mult   decimal.Decimal
}

// NewTickConverter creates a converter with the given number of price digits.
func NewTickConverter(digits int32) TickConverter {
	return TickConverter{
		digits: digits,
		mult:   decimal.New(1, digits),
	}
}

// ToTick converts a decimal price to its integer tick, rounding to the
// nearest tick. The caller guarantees non-negative input.
func (c TickConverter) ToTick(price decimal.Decimal) int64 {
	return price.Mul(c.mult).Round(0).IntPart()
}

// ToPrice converts an integer tick back to the decimal price.
// Exact inverse of the multiplication used in ToTick.
func (c TickConverter) ToPrice(tick int64) decimal.Decimal {
	return decimal.New(tick, -c.digits)
}
