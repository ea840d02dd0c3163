// Package strategy implements the one-way pair arbitrage algorithm: rest a
// limit bid on one venue (venue_buy) priced so that hedging the fill with a
// market ask on the other venue (venue_sell) nets a target profit after
// fees, then track the resulting fills and reprice or cancel as the sell
// venue's book moves.
//
// Tick is invoked both on the coordinator's periodic timer and on every
// ExchangeState update from either venue; it is idempotent and safe to call
// repeatedly with no new information.
package strategy

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"arb-engine/internal/book"
	"arb-engine/pkg/types"
)

// EnqueueFunc submits an action to the coordinator's action queue.
type EnqueueFunc func(*types.Action)

// Config is the strategy's static parameterisation, loaded once at startup.
type Config struct {
	VenueBuy             string
	VenueSell            string
	BidAmount            decimal.Decimal
	MakerFee             decimal.Decimal
	TakerFee             decimal.Decimal
	ProfitTarget         decimal.Decimal
	OrderUpdateThreshold decimal.Decimal
	PollPeriod           time.Duration
}

// Arbitrage is the strategy's runtime state. One instance serves one
// (venue_buy, venue_sell) pair for one symbol. Tick is never re-entered:
// the coordinator calls it from its timer and from every venue's update
// publisher, and mu serializes those invocations.
type Arbitrage struct {
	cfg       Config
	buyState  *book.ExchangeState
	sellState *book.ExchangeState
	enqueue   EnqueueFunc
	logger    *slog.Logger

	combinedFactor decimal.Decimal

	mu                 sync.Mutex
	liveLimit          *types.Action
	liveCancel         *types.Action
	previousFillAmount decimal.Decimal
	lastBidPrice       decimal.Decimal
	haveLastBidPrice   bool
	paused             bool
	pauseLogged        bool
}

// NewArbitrage constructs the strategy for one venue pair. buyState and
// sellState must already be wired to their venue clients by the caller.
func NewArbitrage(cfg Config, buyState, sellState *book.ExchangeState, enqueue EnqueueFunc, logger *slog.Logger) *Arbitrage {
	return &Arbitrage{
		cfg:                cfg,
		buyState:           buyState,
		sellState:          sellState,
		enqueue:            enqueue,
		logger:             logger.With("component", "strategy"),
		combinedFactor:     CombinedFactor(cfg.MakerFee, cfg.TakerFee),
		previousFillAmount: decimal.Zero,
	}
}

// LastBidPrice returns the most recently computed resting-bid price, and
// whether one has been computed yet. Consulted by the balance guard.
func (a *Arbitrage) LastBidPrice() (decimal.Decimal, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastBidPrice, a.haveLastBidPrice
}

// BidAmount returns the configured resting-bid quantity.
func (a *Arbitrage) BidAmount() decimal.Decimal {
	return a.cfg.BidAmount
}

// SetPaused is called by the balance guard to suspend or resume step 1 of
// the per-tick logic. Tick continues to run while paused; only new bid
// creation is suppressed.
func (a *Arbitrage) SetPaused(paused bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.paused = paused
	if !paused {
		a.pauseLogged = false
	}
}

// Tick runs one pass of the per-tick logic described in the package
// comment. It returns a non-nil error only for the forbidden-action
// programming errors in checkSanity and for book/amount invariant
// violations that indicate a venue decoder bug — both are fatal to the
// coordinator, never recovered in place.
func (a *Arbitrage) Tick() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.liveLimit == nil {
		return a.startNewBid()
	}

	switch a.liveLimit.Status() {
	case types.ActionPending:
		return nil
	case types.ActionFailed:
		a.liveLimit = nil
		return nil
	case types.ActionSuccess:
		if done, err := a.handleFilledBid(); done || err != nil {
			return err
		}
	}

	if a.liveCancel != nil {
		switch a.liveCancel.Status() {
		case types.ActionPending:
			return nil
		case types.ActionSuccess:
			a.liveLimit = nil
			a.liveCancel = nil
			return nil
		case types.ActionFailed:
			return fmt.Errorf("strategy: cancel of live bid failed, no recovery path")
		}
		return nil
	}

	return a.considerRepricing()
}

// startNewBid is step 1: compute the bid price and affordable quantity from
// the current books and balance, and enqueue a resting limit bid.
func (a *Arbitrage) startNewBid() error {
	if a.paused {
		if !a.pauseLogged {
			a.logger.Warn("paused: cannot afford configured bid amount at last computed price")
			a.pauseLogged = true
		}
		return nil
	}

	a.sellState.RLock()
	sellPrice, err := EffectiveSellPrice(a.sellState.Book.Bids, a.cfg.BidAmount)
	a.sellState.RUnlock()
	if err != nil {
		a.logger.Debug("skipping tick: cannot compute effective sell price", "error", err)
		return nil
	}

	bidPrice := types.RoundDownToCents(BidLimitPrice(a.combinedFactor, sellPrice, a.cfg.ProfitTarget))
	a.lastBidPrice = bidPrice
	a.haveLastBidPrice = true

	a.buyState.RLock()
	freeUSD := a.buyState.Balance.Free("USD")
	a.buyState.RUnlock()

	affordable := types.RoundDownToMillis(freeUSD.Div(bidPrice))
	amount := decimal.Min(a.cfg.BidAmount, affordable)
	if amount.Sign() <= 0 {
		if !a.pauseLogged {
			a.logger.Warn("cannot afford configured bid amount", "free_usd", freeUSD, "bid_price", bidPrice)
			a.pauseLogged = true
		}
		return nil
	}
	a.pauseLogged = false

	action := &types.Action{
		Kind:          types.CreateOrderAction,
		ClientOrderID: types.NewClientOrderID(),
		VenueID:       a.cfg.VenueBuy,
		Side:          types.BID,
		Type:          types.LIMIT,
		Amount:        amount,
		Price:         &bidPrice,
	}
	if err := a.checkSanity(action); err != nil {
		return err
	}

	a.previousFillAmount = decimal.Zero
	a.liveLimit = action
	a.enqueue(action)
	return nil
}

// handleFilledBid is step 4: inspect a SUCCESS resting bid's resulting
// order for new fills and terminal states. The returned bool reports
// whether Tick should stop (true) without falling through to the cancel /
// reprice steps this call.
func (a *Arbitrage) handleFilledBid() (bool, error) {
	order := a.liveLimit.ResultOrder()
	if order == nil {
		return true, nil
	}

	// order is shared with the venue client's ExchangeState and mutated
	// there as fills and terminal events arrive; read its fields under
	// buyState's lock rather than the Action's own.
	a.buyState.RLock()
	orderID := order.OrderID
	filled := order.Filled
	status := order.Status
	a.buyState.RUnlock()

	delta := filled.Sub(a.previousFillAmount)
	if delta.Sign() > 0 {
		hedge := &types.Action{
			Kind:          types.CreateOrderAction,
			ClientOrderID: types.NewClientOrderID(),
			VenueID:       a.cfg.VenueSell,
			Side:          types.ASK,
			Type:          types.MARKET,
			Amount:        delta,
		}
		if err := a.checkSanity(hedge); err != nil {
			return true, err
		}
		a.previousFillAmount = filled
		a.enqueue(hedge)
	}

	if filled.Equal(a.cfg.BidAmount) {
		if status != types.OrderClosed {
			return true, fmt.Errorf("strategy: bid fully filled but order %s is not CLOSED", orderID)
		}
		a.liveLimit = nil
		a.liveCancel = nil
		a.previousFillAmount = decimal.Zero
		return true, nil
	}

	if status == types.OrderCancelled && a.liveCancel != nil {
		// Our own cancel landed; the cancel step below clears both actions.
		return false, nil
	}
	if status.IsTerminal() {
		return true, fmt.Errorf("strategy: order %s reached terminal state %s with filled %s < amount %s and no cancel requested", orderID, status, filled, a.cfg.BidAmount)
	}

	return false, nil
}

// considerRepricing is step 6: recompute the profit factor against the
// current sell-venue book and cancel the live bid if it has drifted beyond
// the configured threshold.
func (a *Arbitrage) considerRepricing() error {
	a.sellState.RLock()
	sellPrice, err := EffectiveSellPrice(a.sellState.Book.Bids, a.cfg.BidAmount)
	a.sellState.RUnlock()
	if err != nil {
		a.logger.Debug("skipping reprice check: cannot compute effective sell price", "error", err)
		return nil
	}

	profit := ProfitFactor(a.combinedFactor, sellPrice, a.lastBidPrice)
	target := one.Add(a.cfg.ProfitTarget)
	if profit.Sub(target).Abs().LessThanOrEqual(a.cfg.OrderUpdateThreshold) {
		return nil
	}

	cancel := &types.Action{
		Kind:    types.CancelOrderAction,
		VenueID: a.cfg.VenueBuy,
		OrderID: a.liveLimit.ResultOrder().OrderID,
	}
	a.liveCancel = cancel
	a.enqueue(cancel)
	return nil
}

// checkSanity enforces the contracts that must never be violated by a
// generated action: no MARKET BID, no LIMIT ASK, no ASK on venue_buy, no
// BID on venue_sell. A violation indicates a bug in the strategy itself.
func (a *Arbitrage) checkSanity(action *types.Action) error {
	if action.Kind != types.CreateOrderAction {
		return nil
	}
	if action.Side == types.BID && action.Type == types.MARKET {
		return fmt.Errorf("%w: market bid", types.ErrForbiddenAction)
	}
	if action.Side == types.ASK && action.Type == types.LIMIT {
		return fmt.Errorf("%w: limit ask", types.ErrForbiddenAction)
	}
	if action.VenueID == a.cfg.VenueBuy && action.Side == types.ASK {
		return fmt.Errorf("%w: ask on venue_buy", types.ErrForbiddenAction)
	}
	if action.VenueID == a.cfg.VenueSell && action.Side == types.BID {
		return fmt.Errorf("%w: bid on venue_sell", types.ErrForbiddenAction)
	}
	return nil
}
