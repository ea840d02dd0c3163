package types

import "github.com/shopspring/decimal"

// OneSatoshi and OneCent are the domain's minimum units: the smallest BTC
// quantity increment and the smallest USD price increment respectively.
var (
	OneSatoshi = decimal.New(1, -8)
	OneCent    = decimal.New(1, -2)
)

// RoundToSatoshi rounds a quantity to 8 decimal places, half-up.
func RoundToSatoshi(d decimal.Decimal) decimal.Decimal {
	return roundHalfUp(d, 8)
}

// RoundToCents rounds a price to 2 decimal places, half-up.
func RoundToCents(d decimal.Decimal) decimal.Decimal {
	return roundHalfUp(d, 2)
}

// RoundDownToCents rounds a price down (towards zero) to 2 decimal places.
func RoundDownToCents(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(2)
}

// RoundDownToMillis truncates a BTC quantity down to 3 decimal places —
// the affordability quantization the strategy applies when clamping the bid
// amount to what the buy venue's free USD balance can cover.
func RoundDownToMillis(d decimal.Decimal) decimal.Decimal {
	return d.Truncate(3)
}

// roundHalfUp rounds away from zero at the halfway point, matching Python's
// decimal.ROUND_HALF_UP (shopspring/decimal's own Round uses round-half-even
// for ties, which is not what currency.py specifies).
func roundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	if d.IsNegative() {
		return roundHalfUp(d.Neg(), places).Neg()
	}
	shift := decimal.New(1, places)
	shifted := d.Mul(shift)
	half := decimal.NewFromFloat(0.5)
	floor := shifted.Floor()
	if shifted.Sub(floor).GreaterThanOrEqual(half) {
		floor = floor.Add(decimal.NewFromInt(1))
	}
	return floor.Div(shift).Truncate(places)
}
