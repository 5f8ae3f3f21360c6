package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in integer minor units (e.g. cents). All core
// arithmetic happens on this type; decimals exist only at the API boundary.
type Amount int64

// AmountFromDecimal converts a boundary decimal value into minor units using
// the currency exponent (2 for KES/USD style currencies). Values with more
// precision than the currency supports are rejected rather than rounded.
func AmountFromDecimal(d decimal.Decimal, exponent int32) (Amount, error) {
	shifted := d.Shift(exponent)
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %s has more than %d decimal places", d.String(), exponent)
	}
	return Amount(shifted.IntPart()), nil
}

// Decimal converts the amount back to display units.
func (a Amount) Decimal(exponent int32) decimal.Decimal {
	return decimal.NewFromInt(int64(a)).Shift(-exponent)
}

// Abs returns the absolute value of the amount.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// MinAmount returns the smaller of two amounts.
func MinAmount(a, b Amount) Amount {
	if a < b {
		return a
	}
	return b
}
