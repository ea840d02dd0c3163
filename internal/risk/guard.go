// Package risk implements the one risk component this system carries: a
// balance guard that pauses the arbitrage strategy's bid-creation step
// while the buy venue's free balance cannot afford the configured bid
// amount, rather than treating that condition as fatal.
package risk

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"arb-engine/internal/book"
	"arb-engine/pkg/types"
)

// Strategy is the narrow view of internal/strategy.Arbitrage the guard
// needs. Defined here, not imported from strategy, so risk has no
// dependency on the strategy package — the strategy package satisfies this
// interface structurally.
type Strategy interface {
	LastBidPrice() (decimal.Decimal, bool)
	BidAmount() decimal.Decimal
	SetPaused(bool)
}

// BalanceGuard observes the buy venue's USD balance on every ExchangeState
// update and pauses the strategy while the affordable quantity at the last
// computed bid price is zero, clearing the pause the moment balance makes
// it positive again.
type BalanceGuard struct {
	buyState *book.ExchangeState
	strategy Strategy
	logger   *slog.Logger

	wasBlocked bool
}

// NewBalanceGuard constructs a guard for one (buy venue, strategy) pair.
// Callers wire Check as a subscriber on buyState.Publisher.
func NewBalanceGuard(buyState *book.ExchangeState, strategy Strategy, logger *slog.Logger) *BalanceGuard {
	return &BalanceGuard{
		buyState: buyState,
		strategy: strategy,
		logger:   logger.With("component", "risk"),
	}
}

// Check re-evaluates affordability and updates the strategy's paused state.
// It is a no-op until the strategy has computed at least one bid price,
// since affordability cannot be evaluated without one.
func (g *BalanceGuard) Check() {
	price, ok := g.strategy.LastBidPrice()
	if !ok || price.Sign() <= 0 {
		return
	}

	g.buyState.RLock()
	freeUSD := g.buyState.Balance.Free("USD")
	g.buyState.RUnlock()

	affordable := types.RoundDownToMillis(freeUSD.Div(price))
	blocked := decimal.Min(g.strategy.BidAmount(), affordable).Sign() <= 0

	if blocked == g.wasBlocked {
		g.strategy.SetPaused(blocked)
		return
	}
	g.wasBlocked = blocked
	g.strategy.SetPaused(blocked)

	if blocked {
		g.logger.Warn("balance guard pausing strategy", "free_usd", freeUSD, "bid_price", price)
	} else {
		g.logger.Info("balance guard resuming strategy: balance now affords configured bid amount")
	}
}
