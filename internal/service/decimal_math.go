package service

import "github.com/shopspring/decimal"

// divisionScale is the number of fractional digits kept by every division in the
// scoring pipeline. Values are only rounded further when they are stored or printed.
const divisionScale int32 = 16

var (
	decimalTwo     = decimal.NewFromInt(2)
	decimalHundred = decimal.NewFromInt(100)
	decimalHalf    = decimal.NewFromFloat(0.5)
)

// divHalfEven divides a by b, rounding the quotient half-to-even at divisionScale digits.
// b must not be zero.
func divHalfEven(a, b decimal.Decimal) decimal.Decimal {
	q, r := a.QuoRem(b, divisionScale)
	if r.IsZero() {
		return q
	}
	unit := decimal.New(1, -divisionScale)
	// |r| / (|b| * unit) is the discarded fraction of the last digit.
	cmp := r.Abs().Mul(decimalTwo).Cmp(b.Abs().Mul(unit))
	roundAway := cmp > 0
	if cmp == 0 {
		roundAway = q.Shift(divisionScale).BigInt().Bit(0) == 1
	}
	if !roundAway {
		return q
	}
	if r.Sign()*b.Sign() < 0 {
		return q.Sub(unit)
	}
	return q.Add(unit)
}
