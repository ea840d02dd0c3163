// Package book implements the order book model shared by every venue
// client: a side-aware sorted price ladder, the bid/ask pair built from it,
// and the per-venue exchange state (book, orders, balance) that a venue
// client owns and mutates exclusively.
package book

import (
	"sort"

	"arb-engine/pkg/types"

	"github.com/shopspring/decimal"
)

// SortedQuotes is an ordered price -> quantity ladder for one side of a
// book. Bid-side ladders are kept descending (highest price first); ask-side
// ladders are kept ascending (lowest price first). It is not safe for
// concurrent use; callers serialize access through ExchangeState's lock.
type SortedQuotes struct {
	side   types.Side
	levels []types.Quote
}

// NewSortedQuotes returns an empty ladder for the given side.
func NewSortedQuotes(side types.Side) *SortedQuotes {
	return &SortedQuotes{side: side}
}

// less reports whether price a belongs strictly before price b in this
// side's ordering.
func (q *SortedQuotes) less(a, b decimal.Decimal) bool {
	if q.side == types.BID {
		return a.GreaterThan(b)
	}
	return a.LessThan(b)
}

// search returns the index of price, and whether it was found, using the
// side's ordering for binary search.
func (q *SortedQuotes) search(price decimal.Decimal) (int, bool) {
	i := sort.Search(len(q.levels), func(i int) bool {
		return !q.less(q.levels[i].Price, price)
	})
	if i < len(q.levels) && q.levels[i].Price.Equal(price) {
		return i, true
	}
	return i, false
}

// SetQuote inserts or replaces the level at price with qty, or deletes the
// level when qty is zero. Deleting an absent level is a silent no-op.
// Negative price or negative quantity is a programming error.
func (q *SortedQuotes) SetQuote(price, qty decimal.Decimal) {
	if price.IsNegative() || qty.IsNegative() {
		panic("book: negative price or quantity in SetQuote")
	}

	i, found := q.search(price)
	if qty.IsZero() {
		if !found {
			return
		}
		q.levels = append(q.levels[:i], q.levels[i+1:]...)
		return
	}

	if found {
		q.levels[i].Quantity = qty
		return
	}

	q.levels = append(q.levels, types.Quote{})
	copy(q.levels[i+1:], q.levels[i:])
	q.levels[i] = types.Quote{Price: price, Quantity: qty}
}

// AtIndex returns the level at position i (0 = best price) and whether i
// was in range.
func (q *SortedQuotes) AtIndex(i int) (types.Quote, bool) {
	if i < 0 || i >= len(q.levels) {
		return types.Quote{}, false
	}
	return q.levels[i], true
}

// Top returns the best level, or false if the ladder is empty.
func (q *SortedQuotes) Top() (types.Quote, bool) {
	return q.AtIndex(0)
}

// Len returns the number of levels in the ladder.
func (q *SortedQuotes) Len() int {
	return len(q.levels)
}

// Clear removes every level, leaving an empty ladder.
func (q *SortedQuotes) Clear() {
	q.levels = nil
}
