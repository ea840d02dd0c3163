package strategy

import (
	"errors"

	"github.com/shopspring/decimal"

	"arb-engine/internal/book"
)

// ErrInsufficientDepth is returned when the book cannot fill the requested
// quantity; the strategy refuses to enter a trade whose hedge cannot
// execute rather than guess at a worse price.
var ErrInsufficientDepth = errors.New("strategy: order book cannot fill requested quantity")

// EffectiveSellPrice walks bids from the top, accumulating filled quantity
// until it reaches qty, and returns the volume-weighted price of that
// prefix: S = sum (q_i/qty) x p_i, with the last consumed level's quantity
// clipped to the remainder.
func EffectiveSellPrice(bids *book.SortedQuotes, qty decimal.Decimal) (decimal.Decimal, error) {
	if qty.Sign() <= 0 {
		return decimal.Zero, errors.New("strategy: quantity must be positive")
	}

	remaining := qty
	weighted := decimal.Zero
	for i := 0; i < bids.Len(); i++ {
		level, ok := bids.AtIndex(i)
		if !ok {
			break
		}
		consumed := level.Quantity
		if consumed.GreaterThan(remaining) {
			consumed = remaining
		}
		weighted = weighted.Add(consumed.Div(qty).Mul(level.Price))
		remaining = remaining.Sub(consumed)
		if remaining.Sign() <= 0 {
			return weighted, nil
		}
	}
	return decimal.Zero, ErrInsufficientDepth
}
