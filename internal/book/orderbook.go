package book

import (
	"sync"

	"arb-engine/pkg/types"

	"github.com/shopspring/decimal"
)

// OrderBook is the bid/ask pair for one symbol on one venue. At steady state
// the top bid price is below the top ask price; transient crossing during a
// burst of updates is tolerated and resolves as the lagging side catches up.
type OrderBook struct {
	Bids *SortedQuotes
	Asks *SortedQuotes

	readyOnce sync.Once
	readyCh   chan struct{}
}

// NewOrderBook returns an empty, not-yet-ready book.
func NewOrderBook() *OrderBook {
	return &OrderBook{
		Bids:    NewSortedQuotes(types.BID),
		Asks:    NewSortedQuotes(types.ASK),
		readyCh: make(chan struct{}),
	}
}

// MarkReady fires the ready gate exactly once. Subsequent calls are no-ops.
func (b *OrderBook) MarkReady() {
	b.readyOnce.Do(func() { close(b.readyCh) })
}

// Ready returns a channel that closes the first time MarkReady is called —
// an initial full snapshot has been applied and book-dependent decisions
// may proceed.
func (b *OrderBook) Ready() <-chan struct{} {
	return b.readyCh
}

// SetQuote routes a single-side update to the matching ladder.
func (b *OrderBook) SetQuote(side types.Side, price, qty decimal.Decimal) {
	if side == types.BID {
		b.Bids.SetQuote(price, qty)
		return
	}
	b.Asks.SetQuote(price, qty)
}

// MidPrice returns (topBid+topAsk)/2, or false if either side is empty.
func (b *OrderBook) MidPrice() (decimal.Decimal, bool) {
	bid, ok := b.Bids.Top()
	if !ok {
		return decimal.Zero, false
	}
	ask, ok := b.Asks.Top()
	if !ok {
		return decimal.Zero, false
	}
	return bid.Price.Add(ask.Price).Div(decimal.NewFromInt(2)), true
}
