// Arb Engine — an automated one-way pair arbitrage bot trading a single
// symbol across two venues.
//
// Architecture:
//
//	main.go                     — entry point: loads config, wires venues and strategy, waits for SIGINT/SIGTERM
//	internal/engine/engine.go   — coordinator: supervises streams, dispatches actions, drives the strategy's ticks
//	internal/strategy/arbitrage.go — the arbitrage state machine: rests a limit bid, hedges fills, reprices on drift
//	internal/risk/guard.go      — pauses new bids when the buy venue's balance cannot afford the configured size
//	internal/venuea             — venue A client: websocket feed, heartbeat watchdog, REST order placement
//	internal/venueb             — venue B client: market-data + order-events websockets, REST with retry
//	internal/book               — shared order book / balance / publisher state per venue
//	internal/config             — typed configuration with environment-variable credential overrides
//
// How it makes money:
//
//	The bot rests a limit bid on venue_buy priced so that hedging the fill
//	with an immediate market ask on venue_sell, net of both venues' fees,
//	clears the configured profit target. It tracks partial fills, hedges
//	each increment as it lands, and cancels and reprices the resting bid
//	whenever the sell side's book moves enough to erode that margin.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"

	"arb-engine/internal/book"
	"arb-engine/internal/config"
	"arb-engine/internal/engine"
	"arb-engine/internal/risk"
	"arb-engine/internal/strategy"
	"arb-engine/internal/venuea"
	"arb-engine/internal/venueb"
	"arb-engine/pkg/types"
)

func main() {
	cfgPath := "configs/config.yaml"
	if p := os.Getenv("ARB_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err, "path", cfgPath)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Logging.Level)}
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)

	if cfg.DryRun {
		logger.Warn("DRY-RUN MODE — no real orders will be placed")
	}

	buyVenue, sellVenue := buildVenues(*cfg, logger)

	coord, strat := wireStrategyAndEngine(*cfg, buyVenue, sellVenue, logger)

	guard := risk.NewBalanceGuard(buyVenue.State, strat, logger)
	buyVenue.OnUpdate = append(buyVenue.OnUpdate, guard.Check)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := primeBalances(buyVenue, sellVenue); err != nil {
		logger.Error("failed to prime venue balances", "error", err)
		os.Exit(1)
	}

	coord.Start(ctx)
	logger.Info("arb engine started",
		"venue_buy", cfg.VenueA.Symbol,
		"venue_sell", cfg.VenueB.Symbol,
		"bid_amount", cfg.Strategy.BidAmount,
		"profit_target", cfg.Strategy.ProfitTarget,
		"dry_run", cfg.DryRun,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	coord.Stop()
	if err := coord.Wait(); err != nil {
		logger.Error("engine exited with error", "error", err)
		os.Exit(1)
	}
}

// buildVenues constructs the two venue clients (streams, REST clients,
// shared state) and returns them as engine.Venue values, not yet wired to
// a strategy or coordinator.
func buildVenues(cfg config.Config, logger *slog.Logger) (*engine.Venue, *engine.Venue) {
	aState := book.NewExchangeState(cfg.VenueA.Symbol)
	aAuth := venuea.NewAuth(venuea.Credentials{
		APIKey:     cfg.VenueA.APIKey,
		Secret:     cfg.VenueA.Secret,
		Passphrase: cfg.VenueA.Passphrase,
	})
	aStream := venuea.NewStream(cfg.VenueA.WSURL, cfg.VenueA.Symbol, aAuth, aState, logger)
	aREST := venuea.NewRESTClient(cfg.VenueA.BaseURL, aAuth, cfg.DryRun, logger)

	aVenue := &engine.Venue{
		ID:       "venuea",
		Symbol:   cfg.VenueA.Symbol,
		State:    aState,
		Streams:  []engine.Stream{aStream},
		Executor: venueAExecutor{aREST},
	}

	bState := book.NewExchangeState(cfg.VenueB.Symbol)
	bAuth := venueb.NewAuth(venueb.Credentials{
		APIKey: cfg.VenueB.APIKey,
		Secret: cfg.VenueB.Secret,
	})
	registry := venueb.NewActionRegistry()
	bMarketData := venueb.NewMarketDataStream(cfg.VenueB.MarketDataWSURL, bState, logger)
	bOrderEvents := venueb.NewOrderEventsStream(cfg.VenueB.OrderEventsWSURL, cfg.VenueB.OrderEventsPath, bAuth, cfg.VenueB.APISession, bState, registry, logger)
	bREST := venueb.NewRESTClient(cfg.VenueB.BaseURL, bAuth, registry, cfg.DryRun, logger)

	bVenue := &engine.Venue{
		ID:       "venueb",
		Symbol:   cfg.VenueB.Symbol,
		State:    bState,
		Streams:  []engine.Stream{bMarketData, bOrderEvents},
		Executor: bREST,
	}

	return aVenue, bVenue
}

// wireStrategyAndEngine constructs the arbitrage strategy over the two
// venues' shared state and the coordinator that drives it.
func wireStrategyAndEngine(cfg config.Config, buyVenue, sellVenue *engine.Venue, logger *slog.Logger) (*engine.Coordinator, *strategy.Arbitrage) {
	coord := engine.New([]*engine.Venue{buyVenue, sellVenue}, nil, cfg.Strategy.PollPeriod, logger)

	strat := strategy.NewArbitrage(strategy.Config{
		VenueBuy:             buyVenue.ID,
		VenueSell:            sellVenue.ID,
		BidAmount:            decimal.NewFromFloat(cfg.Strategy.BidAmount),
		MakerFee:             decimal.NewFromFloat(cfg.Strategy.MakerFee),
		TakerFee:             decimal.NewFromFloat(cfg.Strategy.TakerFee),
		ProfitTarget:         decimal.NewFromFloat(cfg.Strategy.ProfitTarget),
		OrderUpdateThreshold: decimal.NewFromFloat(cfg.Strategy.OrderUpdateThreshold),
		PollPeriod:           cfg.Strategy.PollPeriod,
	}, buyVenue.State, sellVenue.State, coord.Enqueue, logger)

	coord.SetStrategy(strat)
	return coord, strat
}

// primeBalances fetches each venue's starting balance once before the
// coordinator begins dispatching actions, so the strategy's first tick has
// a non-zero view of available funds.
func primeBalances(buyVenue, sellVenue *engine.Venue) error {
	if err := buyVenue.Executor.UpdateBalance(buyVenue.State); err != nil {
		return err
	}
	if err := sellVenue.Executor.UpdateBalance(sellVenue.State); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// venueAExecutor adapts venuea's void-returning REST methods (failures are
// absorbed into the Action's status field, never surfaced as a Go error) to
// engine.Executor's uniform error-returning shape.
type venueAExecutor struct {
	client *venuea.RESTClient
}

func (e venueAExecutor) ExecuteCreateOrder(symbol string, action *types.Action) error {
	e.client.ExecuteCreateOrder(symbol, action)
	return nil
}

func (e venueAExecutor) ExecuteCancelOrder(action *types.Action) error {
	e.client.ExecuteCancelOrder(action)
	return nil
}

func (e venueAExecutor) UpdateBalance(state *book.ExchangeState) error {
	return e.client.UpdateBalance(state)
}
