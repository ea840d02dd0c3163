// Package engine is the coordinator: it wires the venue clients, the
// arbitrage strategy, and a periodic timer into one supervised process.
//
// Lifecycle: New() -> Start(ctx) -> [runs until ctx is cancelled or a task
// fails] -> Wait() returns the first error, if any.
//
// Supervision follows trader.py's asyncio.wait(tasks,
// return_when=FIRST_EXCEPTION) followed by asyncio.wait(pending, timeout=2):
// every long-lived task runs inside one errgroup.Group built from a
// cancellable context; the first task to return a non-nil error cancels
// that context, and every other task is expected to observe ctx.Done() at
// its next suspension point and return promptly.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"arb-engine/internal/book"
	"arb-engine/internal/queue"
	"arb-engine/pkg/types"
)

const (
	queueWarnDepth = 100
	shutdownGrace  = 2 * time.Second
)

// Executor executes Actions against one venue's REST API. internal/venueb's
// REST client satisfies this directly; internal/venuea's is wrapped in a
// thin adapter (see Venue construction in cmd/bot) because its order calls
// return no error (Venue B's do, on REST exhaustion).
type Executor interface {
	ExecuteCreateOrder(symbol string, action *types.Action) error
	ExecuteCancelOrder(action *types.Action) error
	UpdateBalance(state *book.ExchangeState) error
}

// Stream is one long-lived streaming connection owned by a venue client.
type Stream interface {
	Run(ctx context.Context) error
}

// Venue bundles everything the coordinator needs to run and route actions
// to one venue: its shared state, its streaming connections, and its REST
// executor. OnUpdate carries additional subscribers beyond the engine's own
// logging-and-strategy-tick wiring (the balance guard subscribes here on
// the buy venue).
type Venue struct {
	ID       string
	Symbol   string
	State    *book.ExchangeState
	Streams  []Stream
	Executor Executor
	OnUpdate []func()
}

// Strategy is the narrow view of internal/strategy.Arbitrage the
// coordinator needs: a single idempotent per-tick entry point.
type Strategy interface {
	Tick() error
}

// Coordinator owns the action queue, the periodic timer, and the
// supervised goroutine set for every venue's streaming connections and the
// action dispatcher.
type Coordinator struct {
	venues   map[string]*Venue
	strategy Strategy
	actions  *queue.Queue[*types.Action]
	timer    *Timer
	logger   *slog.Logger

	cancel context.CancelFunc
	group  *errgroup.Group
}

// New constructs a Coordinator over the given venues and strategy. pollPeriod
// is the strategy's tick interval.
func New(venues []*Venue, strat Strategy, pollPeriod time.Duration, logger *slog.Logger) *Coordinator {
	byID := make(map[string]*Venue, len(venues))
	for _, v := range venues {
		byID[v.ID] = v
	}
	return &Coordinator{
		venues:   byID,
		strategy: strat,
		actions:  queue.New[*types.Action](),
		timer:    NewTimer(pollPeriod),
		logger:   logger.With("component", "engine"),
	}
}

// SetStrategy assigns the strategy the coordinator drives. It must be
// called before Start; it exists separately from New because the strategy
// itself is typically constructed with this coordinator's Enqueue method,
// creating an unavoidable two-step wiring order.
func (c *Coordinator) SetStrategy(strat Strategy) {
	c.strategy = strat
}

// Enqueue submits an action for dispatch to its venue. It satisfies
// strategy.EnqueueFunc.
func (c *Coordinator) Enqueue(action *types.Action) {
	depth := c.actions.Push(action)
	if depth >= queueWarnDepth {
		c.logger.Warn("action queue depth high", "depth", depth)
	}
}

// Start launches every venue's streams, the action dispatcher, and the
// strategy timer under one errgroup derived from ctx, and wires every
// venue's update publisher to a logging callback, the strategy's Tick, and
// any venue-specific extra subscribers. It returns immediately; call Wait
// to block for completion.
func (c *Coordinator) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	g, gctx := errgroup.WithContext(runCtx)
	c.group = g

	// tickFailed carries the first strategy tick error to a supervised task,
	// so it surfaces from Wait like any other fatal error.
	tickFailed := make(chan error, 1)
	reportTick := func(err error) {
		select {
		case tickFailed <- err:
		default:
		}
	}
	g.Go(func() error {
		select {
		case err := <-tickFailed:
			return fmt.Errorf("engine: strategy tick: %w", err)
		case <-gctx.Done():
			return nil
		}
	})

	for _, v := range c.venues {
		v := v
		v.State.Publisher.Subscribe(func() {
			c.logger.Debug("venue state updated", "venue", v.ID)
		})
		v.State.Publisher.Subscribe(func() {
			if err := c.strategy.Tick(); err != nil {
				c.logger.Error("strategy tick failed", "venue", v.ID, "error", err)
				reportTick(err)
			}
		})
		for _, fn := range v.OnUpdate {
			v.State.Publisher.Subscribe(fn)
		}

		for _, stream := range v.Streams {
			stream := stream
			venueID := v.ID
			g.Go(func() error {
				if err := stream.Run(gctx); err != nil && gctx.Err() == nil {
					return fmt.Errorf("engine: %s stream: %w", venueID, err)
				}
				return nil
			})
		}
	}

	g.Go(func() error { return c.dispatch(gctx) })

	g.Go(func() error {
		err := c.timer.Run(gctx, func() {
			if err := c.strategy.Tick(); err != nil {
				c.logger.Error("strategy tick failed", "source", "timer", "error", err)
				reportTick(err)
			}
		})
		if gctx.Err() != nil {
			return nil
		}
		return err
	})
}

// dispatch drains the action queue and routes each action to the venue its
// VenueID names, until ctx is cancelled. A VenueID matching no known venue,
// or an execution error, is fatal and propagates to the supervisor.
func (c *Coordinator) dispatch(ctx context.Context) error {
	for {
		action, err := c.actions.Pop(ctx)
		if err != nil {
			return nil
		}

		venue, ok := c.venues[action.VenueID]
		if !ok {
			return fmt.Errorf("engine: action routed to unknown venue %q", action.VenueID)
		}

		if err := executeAction(venue, action); err != nil {
			return fmt.Errorf("engine: execute action on %s: %w", venue.ID, err)
		}
	}
}

func executeAction(v *Venue, action *types.Action) error {
	switch action.Kind {
	case types.CreateOrderAction:
		return v.Executor.ExecuteCreateOrder(v.Symbol, action)
	case types.CancelOrderAction:
		return v.Executor.ExecuteCancelOrder(action)
	default:
		return fmt.Errorf("engine: unhandled action kind %v", action.Kind)
	}
}

// Wait blocks until every supervised task has returned, then returns the
// first non-nil error any of them produced (nil on a clean ctx
// cancellation). It allows shutdownGrace, counted from the call, for peers
// to observe cancellation; if tasks are still running after that, it gives
// up and returns an error saying so.
func (c *Coordinator) Wait() error {
	done := make(chan error, 1)
	go func() { done <- c.group.Wait() }()

	select {
	case err := <-done:
		return err
	case <-time.After(shutdownGrace):
		c.logger.Warn("shutdown grace period elapsed with tasks still running")
		return fmt.Errorf("engine: tasks still running after %s shutdown grace", shutdownGrace)
	}
}

// Stop requests cancellation of every supervised task.
func (c *Coordinator) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}
