// Package clobdecimal carries the exact-decimal arithmetic every price and
// quantity in the matching core is expressed in. Binary floating point is
// never used for money math: shopspring/decimal backs every value with an
// arbitrary-precision integer coefficient, comfortably exceeding the
// 18-integer + 18-fractional digit floor the core requires.
package clobdecimal

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Decimal is the exact-precision type used for all prices and quantities.
type Decimal = decimal.Decimal

// Zero is the additive identity.
var Zero = decimal.Zero

// DivisionPlaces is an 18-fractional-digit division scale. No caller in
// the core uses it: the engine's average fill price and the book's spread
// in basis points divide to 8 places, and fees involve no division.
const DivisionPlaces = 18

// Parse converts a decimal string from the wire into a Decimal.
func Parse(s string) (Decimal, error) {
	if s == "" {
		return Zero, fmt.Errorf("clobdecimal: empty decimal string")
	}
	return decimal.NewFromString(s)
}

// MustParse is Parse but panics on a malformed literal; reserved for
// compile-time constants in tests and config defaults.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// DivBank divides a by b and rounds the quotient half-even to places,
// the rounding mode spec.md §4.1 and §9 item 8 both call for.
func DivBank(a, b Decimal, places int32) Decimal {
	q, r := a.QuoRem(b, places)
	// q is truncated toward zero; 2|r|·10^places against |b| says whether
	// the discarded part is below, at, or above half a unit in the last place.
	c := r.Abs().Add(r.Abs()).Shift(places).Cmp(b.Abs())
	if c < 0 || (c == 0 && q.Shift(places).Mod(decimal.New(2, 0)).IsZero()) {
		return q
	}
	if a.Sign()*b.Sign() < 0 {
		return q.Sub(decimal.New(1, -places))
	}
	return q.Add(decimal.New(1, -places))
}

// MulBank multiplies a by b and rounds the product half-even to places.
func MulBank(a, b Decimal, places int32) Decimal {
	return a.Mul(b).RoundBank(places)
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d Decimal) bool {
	return d.Sign() > 0
}

// IsNegative reports whether d is strictly less than zero.
func IsNegative(d Decimal) bool {
	return d.Sign() < 0
}
