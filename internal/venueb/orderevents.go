package venueb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"arb-engine/internal/book"
	"arb-engine/internal/queue"
	"arb-engine/pkg/types"
)

// OrderEventsStream is the authenticated, session-filtered private feed of
// this process's own order lifecycle. Unlike MarketDataStream, it checks
// both socket_sequence and an independent heartbeat sequence, and an
// unrecognized frame type is always fatal.
type OrderEventsStream struct {
	url        string
	path       string
	auth       *Auth
	apiSession string
	state      *book.ExchangeState
	registry   *ActionRegistry
	logger     *slog.Logger

	connMu sync.Mutex
	conn   *websocket.Conn

	raw         *queue.Queue[[]byte]
	seq         sequencer
	heartbeat   heartbeatSequencer
	receivedFirst bool
}

// NewOrderEventsStream returns a not-yet-connected order-events stream.
func NewOrderEventsStream(url, path string, auth *Auth, apiSession string, state *book.ExchangeState, registry *ActionRegistry, logger *slog.Logger) *OrderEventsStream {
	return &OrderEventsStream{
		url:        url,
		path:       path,
		auth:       auth,
		apiSession: apiSession,
		state:      state,
		registry:   registry,
		logger:     logger.With("component", "venueb_orderevents"),
		raw:        queue.New[[]byte](),
	}
}

// Run maintains the connection, blocking until ctx is cancelled or a fatal
// protocol violation occurs.
func (s *OrderEventsStream) Run(ctx context.Context) error {
	return runWithReconnect(ctx, "orderevents", s.logger, s.connectAndRead)
}

func (s *OrderEventsStream) connectAndRead(ctx context.Context) error {
	conn, err := dialAuthenticated(ctx, s.url, s.auth, s.path)
	if err != nil {
		return err
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	defer func() {
		s.connMu.Lock()
		conn.Close()
		s.conn = nil
		s.connMu.Unlock()
	}()

	s.seq = sequencer{}
	s.heartbeat = heartbeatSequencer{}
	s.receivedFirst = false

	parseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	parseErrCh := make(chan error, 1)
	go func() { parseErrCh <- s.parseLoop(parseCtx) }()

	readErrCh := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErrCh <- err
				return
			}
			depth := s.raw.Push(msg)
			if depth >= queueWarnDepth {
				s.logger.Warn("raw frame queue backed up", "depth", depth)
			}
		}
	}()

	select {
	case err := <-readErrCh:
		return err
	case err := <-parseErrCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OrderEventsStream) parseLoop(ctx context.Context) error {
	for {
		data, err := s.raw.Pop(ctx)
		if err != nil {
			return nil
		}
		if err := s.dispatch(data); err != nil {
			return &fatalError{err}
		}
		if s.raw.Len() == 0 {
			s.state.Publish()
		}
	}
}

func (s *OrderEventsStream) dispatch(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Debug("ignoring non-json frame", "data", string(data))
		return nil
	}

	if env.Type == "subscription_ack" {
		if err := s.seq.checkAck(); err != nil {
			return err
		}
		if err := s.validateSubscriptionAck(data); err != nil {
			return err
		}
		s.receivedFirst = true
		return nil
	}

	if !s.receivedFirst {
		return fmt.Errorf("venueb: order-events stream opened with %q, want subscription_ack", env.Type)
	}
	if env.SocketSequence == nil {
		return fmt.Errorf("venueb: order-events frame %q missing socket_sequence", env.Type)
	}
	if err := s.seq.check(*env.SocketSequence); err != nil {
		return err
	}

	switch env.Type {
	case "heartbeat":
		var f orderHeartbeatFrame
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("venueb: decode heartbeat: %w", err)
		}
		return s.heartbeat.check(f.Sequence)
	case "initial":
		return s.applyInitial(data)
	case "accepted":
		return s.applyAccepted(data)
	case "rejected":
		return s.applyRejected(data)
	case "booked":
		return nil
	case "fill":
		return s.applyFill(data)
	case "cancelled":
		return s.applyCancelled(data)
	case "cancel_rejected":
		return s.applyCancelRejected(data)
	case "closed":
		return s.applyClosed(data)
	default:
		return fmt.Errorf("venueb: %w: %q", types.ErrUnknownMessageType, env.Type)
	}
}

func (s *OrderEventsStream) validateSubscriptionAck(data []byte) error {
	var f orderSubscriptionAckFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venueb: decode subscription_ack: %w", err)
	}
	if f.AccountID == "" {
		return fmt.Errorf("venueb: subscription_ack missing accountId")
	}
	if len(f.SymbolFilter) != 0 || len(f.EventTypeFilter) != 0 {
		return fmt.Errorf("venueb: subscription_ack has non-empty symbol/event-type filters")
	}
	if len(f.APISessionFilter) != 1 || f.APISessionFilter[0] != s.apiSession {
		return fmt.Errorf("venueb: subscription_ack session filter does not match our key")
	}
	return nil
}

func decodeOrderAmounts(f orderEventFrame) (amount, filled, remaining decimal.Decimal, err error) {
	amount, err = decimal.NewFromString(f.OriginalAmount)
	if err != nil {
		return
	}
	remaining, err = decimal.NewFromString(f.RemainingAmount)
	if err != nil {
		return
	}
	filled, err = decimal.NewFromString(f.ExecutedAmount)
	return
}

func (s *OrderEventsStream) applyInitial(data []byte) error {
	var f orderEventFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venueb: decode initial: %w", err)
	}

	s.state.Lock()
	defer s.state.Unlock()
	if _, exists := s.state.Orders[f.OrderID]; exists {
		return fmt.Errorf("venueb: %w: initial for order %s", types.ErrOrderCollision, f.OrderID)
	}

	amount, filled, remaining, err := decodeOrderAmounts(f)
	if err != nil {
		return fmt.Errorf("venueb: parse initial amounts: %w", err)
	}
	side := types.BID
	if f.Side == "ask" || f.Side == "sell" {
		side = types.ASK
	}

	order := &types.Order{
		OrderID:   f.OrderID,
		Side:      side,
		Type:      types.LIMIT,
		Amount:    amount,
		Filled:    filled,
		Remaining: remaining,
		Status:    types.OrderOpen,
	}
	if err := order.CheckInvariant(); err != nil {
		return err
	}
	s.state.Orders[f.OrderID] = order
	return nil
}

func (s *OrderEventsStream) applyAccepted(data []byte) error {
	var f orderEventFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venueb: decode accepted: %w", err)
	}

	action, ok := s.registry.ResolveCreate(f.ClientOrderID)
	if !ok {
		return fmt.Errorf("venueb: %w: accepted for client_order_id %s", types.ErrActionNotFound, f.ClientOrderID)
	}

	amount, filled, remaining, err := decodeOrderAmounts(f)
	if err != nil {
		return fmt.Errorf("venueb: parse accepted amounts: %w", err)
	}

	s.state.Lock()
	order := &types.Order{
		OrderID:   f.OrderID,
		Side:      action.Side,
		Type:      action.Type,
		Amount:    amount,
		Filled:    filled,
		Remaining: remaining,
		Status:    types.OrderOpen,
	}
	s.state.Orders[f.OrderID] = order
	s.state.Unlock()

	action.SetResultOrder(order)
	action.SetStatus(types.ActionSuccess)
	return nil
}

func (s *OrderEventsStream) applyRejected(data []byte) error {
	var f orderEventFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venueb: decode rejected: %w", err)
	}

	action, ok := s.registry.ResolveCreate(f.ClientOrderID)
	if !ok {
		return fmt.Errorf("venueb: %w: rejected for client_order_id %s", types.ErrActionNotFound, f.ClientOrderID)
	}

	s.logger.Warn("order rejected", "client_order_id", f.ClientOrderID, "reason", f.Reason)
	action.SetStatus(types.ActionFailed)
	return nil
}

func (s *OrderEventsStream) applyFill(data []byte) error {
	var f orderEventFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venueb: decode fill: %w", err)
	}

	s.state.Lock()
	defer s.state.Unlock()
	order, exists := s.state.Orders[f.OrderID]
	if !exists {
		return fmt.Errorf("venueb: %w: fill for order %s", types.ErrActionNotFound, f.OrderID)
	}

	_, filled, remaining, err := decodeOrderAmounts(f)
	if err != nil {
		return fmt.Errorf("venueb: parse fill amounts: %w", err)
	}
	order.Filled = filled
	order.Remaining = remaining
	if remaining.IsZero() {
		order.Status = types.OrderClosed
	}
	return order.CheckInvariant()
}

func (s *OrderEventsStream) applyCancelled(data []byte) error {
	var f orderEventFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venueb: decode cancelled: %w", err)
	}

	s.state.Lock()
	order, exists := s.state.Orders[f.OrderID]
	if exists {
		order.Status = types.OrderCancelled
	}
	s.state.Unlock()
	if !exists {
		return fmt.Errorf("venueb: %w: cancelled for order %s", types.ErrActionNotFound, f.OrderID)
	}

	action, ok := s.registry.ResolveCancel(f.OrderID)
	if !ok {
		return fmt.Errorf("venueb: %w: cancelled with no matching CancelOrder action for %s", types.ErrActionNotFound, f.OrderID)
	}
	action.SetStatus(types.ActionSuccess)
	return nil
}

func (s *OrderEventsStream) applyCancelRejected(data []byte) error {
	var f orderEventFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venueb: decode cancel_rejected: %w", err)
	}

	action, ok := s.registry.ResolveCancel(f.OrderID)
	if !ok {
		return fmt.Errorf("venueb: %w: cancel_rejected for order %s", types.ErrActionNotFound, f.OrderID)
	}
	s.logger.Warn("cancel rejected", "order_id", f.OrderID, "reason", f.Reason)
	action.SetStatus(types.ActionFailed)
	return nil
}

func (s *OrderEventsStream) applyClosed(data []byte) error {
	var f orderEventFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venueb: decode closed: %w", err)
	}

	s.state.Lock()
	defer s.state.Unlock()
	order, exists := s.state.Orders[f.OrderID]
	if !exists {
		return fmt.Errorf("venueb: %w: closed for order %s", types.ErrActionNotFound, f.OrderID)
	}
	order.Status = types.OrderClosed
	return nil
}
