package utils

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FromSmallestUnit converts an integer amount in a chain's smallest unit into a
// display-unit decimal string.
// Example: amount=1234500000000000000, decimals=18 => "1.2345".
func FromSmallestUnit(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// ParseBalance parses a display-unit balance string into a decimal, rejecting
// negative values.
func ParseBalance(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed balance %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative balance %q", s)
	}
	return d, nil
}

// ValueUSD computes balance × priceUSD for a display-unit balance string.
func ValueUSD(balance string, priceUSD float64) (float64, error) {
	d, err := ParseBalance(balance)
	if err != nil {
		return 0, err
	}
	v, _ := d.Mul(decimal.NewFromFloat(priceUSD)).Float64()
	return v, nil
}
