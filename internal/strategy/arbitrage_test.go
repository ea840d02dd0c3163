package strategy

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"arb-engine/internal/book"
	"arb-engine/pkg/types"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestArbitrage(t *testing.T) (*Arbitrage, *book.ExchangeState, *book.ExchangeState, *[]*types.Action) {
	t.Helper()

	buyState := book.NewExchangeState("venuea")
	sellState := book.NewExchangeState("venueb")

	buyState.Lock()
	buyState.Balance.Set("USD", types.Balance{Free: dec(t, "1000000")})
	buyState.Unlock()

	sellState.Lock()
	sellState.Book.Bids.SetQuote(dec(t, "20000"), dec(t, "5.0"))
	sellState.Unlock()

	var enqueued []*types.Action
	cfg := Config{
		VenueBuy:             "venuea",
		VenueSell:             "venueb",
		BidAmount:             dec(t, "1.0"),
		MakerFee:              dec(t, "0.01"),
		TakerFee:              dec(t, "0.01"),
		ProfitTarget:          dec(t, "0.10"),
		OrderUpdateThreshold:  dec(t, "0.10"),
		PollPeriod:            time.Second,
	}
	a := NewArbitrage(cfg, buyState, sellState, func(action *types.Action) {
		enqueued = append(enqueued, action)
	}, testLogger())

	return a, buyState, sellState, &enqueued
}

func TestStartNewBidScenario(t *testing.T) {
	t.Parallel()

	a, _, _, enqueued := newTestArbitrage(t)

	if err := a.Tick(); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if len(*enqueued) != 1 {
		t.Fatalf("len(enqueued) = %d, want 1", len(*enqueued))
	}
	action := (*enqueued)[0]
	if action.Side != types.BID || action.Type != types.LIMIT || action.VenueID != "venuea" {
		t.Errorf("action = %+v, want LIMIT BID on venuea", action)
	}
	wantPrice := dec(t, "17823.57")
	if action.Price == nil || action.Price.Sub(wantPrice).Abs().GreaterThan(dec(t, "1")) {
		t.Errorf("action.Price = %v, want ~%s", action.Price, wantPrice)
	}
}

func TestLimitThenMarketHedgeScenario(t *testing.T) {
	t.Parallel()

	a, buyState, _, enqueued := newTestArbitrage(t)

	if err := a.Tick(); err != nil {
		t.Fatalf("Tick() (start bid) error = %v", err)
	}
	bidAction := (*enqueued)[0]
	bidAction.SetStatus(types.ActionSuccess)
	order := &types.Order{
		OrderID:   "order-1",
		Side:      types.BID,
		Type:      types.LIMIT,
		Amount:    dec(t, "1.0"),
		Price:     bidAction.Price,
		Filled:    decimal.Zero,
		Remaining: dec(t, "1.0"),
		Status:    types.OrderOpen,
	}
	bidAction.SetResultOrder(order)

	if err := a.Tick(); err != nil {
		t.Fatalf("Tick() (no new fill) error = %v", err)
	}
	if len(*enqueued) != 1 {
		t.Fatalf("len(enqueued) after no-fill tick = %d, want 1 (no spurious hedge)", len(*enqueued))
	}

	buyState.Lock()
	order.Filled = dec(t, "0.5")
	order.Remaining = dec(t, "0.5")
	buyState.Unlock()
	if err := a.Tick(); err != nil {
		t.Fatalf("Tick() (first fill) error = %v", err)
	}
	if len(*enqueued) != 2 {
		t.Fatalf("len(enqueued) after first fill = %d, want 2", len(*enqueued))
	}
	hedge1 := (*enqueued)[1]
	if hedge1.Side != types.ASK || hedge1.Type != types.MARKET || hedge1.VenueID != "venueb" || !hedge1.Amount.Equal(dec(t, "0.5")) {
		t.Errorf("hedge1 = %+v, want MARKET ASK venueb amount 0.5", hedge1)
	}

	buyState.Lock()
	order.Filled = dec(t, "1.0")
	order.Remaining = decimal.Zero
	order.Status = types.OrderClosed
	buyState.Unlock()
	if err := a.Tick(); err != nil {
		t.Fatalf("Tick() (final fill) error = %v", err)
	}
	if len(*enqueued) != 3 {
		t.Fatalf("len(enqueued) after final fill = %d, want 3", len(*enqueued))
	}
	hedge2 := (*enqueued)[2]
	if !hedge2.Amount.Equal(dec(t, "0.5")) {
		t.Errorf("hedge2.Amount = %s, want 0.5", hedge2.Amount)
	}

	if a.liveLimit != nil {
		t.Error("liveLimit not reset after bid fully filled and closed")
	}
	if !a.previousFillAmount.IsZero() {
		t.Errorf("previousFillAmount = %s, want 0 after reset", a.previousFillAmount)
	}
}

func TestCancelOnDriftScenario(t *testing.T) {
	t.Parallel()

	a, _, sellState, enqueued := newTestArbitrage(t)
	a.combinedFactor = decimal.NewFromInt(1) // isolate the repricing math from fee math

	a.liveLimit = &types.Action{
		Kind:    types.CreateOrderAction,
		VenueID: "venuea",
		Side:    types.BID,
		Type:    types.LIMIT,
		Amount:  dec(t, "1.0"),
	}
	a.liveLimit.SetStatus(types.ActionSuccess)
	a.liveLimit.SetResultOrder(&types.Order{
		OrderID:   "order-1",
		Amount:    dec(t, "1.0"),
		Filled:    decimal.Zero,
		Remaining: dec(t, "1.0"),
		Status:    types.OrderOpen,
	})
	a.lastBidPrice = dec(t, "15147")
	a.haveLastBidPrice = true

	sellState.Lock()
	sellState.Book.Bids.SetQuote(dec(t, "20000"), decimal.Zero) // clear the fixture level
	sellState.Book.Bids.SetQuote(dec(t, "14000"), dec(t, "5.0"))
	sellState.Unlock()

	if err := a.Tick(); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if len(*enqueued) != 1 {
		t.Fatalf("len(enqueued) = %d, want 1 cancel action", len(*enqueued))
	}
	cancel := (*enqueued)[0]
	if cancel.Kind != types.CancelOrderAction || cancel.OrderID != "order-1" {
		t.Errorf("cancel = %+v, want CancelOrder for order-1", cancel)
	}
}

func TestFailedAcceptScenario(t *testing.T) {
	t.Parallel()

	a, _, _, enqueued := newTestArbitrage(t)

	a.liveLimit = &types.Action{
		Kind: types.CreateOrderAction,
	}
	a.liveLimit.SetStatus(types.ActionFailed)

	if err := a.Tick(); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if a.liveLimit != nil {
		t.Error("liveLimit not cleared after FAILED")
	}
	if len(*enqueued) != 0 {
		t.Errorf("len(enqueued) = %d, want 0 on the FAILED-clearing tick", len(*enqueued))
	}

	if err := a.Tick(); err != nil {
		t.Fatalf("Tick() (following tick) error = %v", err)
	}
	if len(*enqueued) != 1 {
		t.Errorf("len(enqueued) after following tick = %d, want 1 (new bid)", len(*enqueued))
	}
}

func TestCheckSanityRejectsForbiddenActions(t *testing.T) {
	t.Parallel()

	a, _, _, _ := newTestArbitrage(t)

	cases := []*types.Action{
		{Kind: types.CreateOrderAction, Side: types.BID, Type: types.MARKET, VenueID: "venuea"},
		{Kind: types.CreateOrderAction, Side: types.ASK, Type: types.LIMIT, VenueID: "venueb"},
		{Kind: types.CreateOrderAction, Side: types.ASK, Type: types.MARKET, VenueID: "venuea"},
		{Kind: types.CreateOrderAction, Side: types.BID, Type: types.LIMIT, VenueID: "venueb"},
	}
	for i, action := range cases {
		if err := a.checkSanity(action); err == nil {
			t.Errorf("case %d: checkSanity(%+v) = nil error, want ErrForbiddenAction", i, action)
		}
	}
}

func TestPauseSuppressesNewBidCreation(t *testing.T) {
	t.Parallel()

	a, _, _, enqueued := newTestArbitrage(t)
	a.SetPaused(true)

	if err := a.Tick(); err != nil {
		t.Fatalf("Tick() error = %v", err)
	}
	if len(*enqueued) != 0 {
		t.Errorf("len(enqueued) = %d, want 0 while paused", len(*enqueued))
	}
}
