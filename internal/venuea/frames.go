package venuea

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"arb-engine/pkg/types"
)

func (s *Stream) applySnapshot(data []byte) error {
	var f snapshotFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venuea: decode snapshot: %w", err)
	}

	s.state.Lock()
	s.state.Book.Bids.Clear()
	s.state.Book.Asks.Clear()
	for _, lvl := range f.Bids {
		price, qty, err := parseLevel(lvl)
		if err != nil {
			s.state.Unlock()
			return err
		}
		s.state.Book.SetQuote(types.BID, price, qty)
	}
	for _, lvl := range f.Asks {
		price, qty, err := parseLevel(lvl)
		if err != nil {
			s.state.Unlock()
			return err
		}
		s.state.Book.SetQuote(types.ASK, price, qty)
	}
	s.state.Unlock()

	s.state.Book.MarkReady()
	return nil
}

func parseLevel(lvl []string) (decimal.Decimal, decimal.Decimal, error) {
	if len(lvl) != 2 {
		return decimal.Zero, decimal.Zero, fmt.Errorf("venuea: malformed book level %v", lvl)
	}
	price, err := decimal.NewFromString(lvl[0])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("venuea: parse price: %w", err)
	}
	qty, err := decimal.NewFromString(lvl[1])
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("venuea: parse quantity: %w", err)
	}
	return price, qty, nil
}

func (s *Stream) applyL2Update(data []byte) error {
	var f l2UpdateFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venuea: decode l2update: %w", err)
	}

	s.state.Lock()
	defer s.state.Unlock()
	for _, c := range f.Changes {
		price, err := decimal.NewFromString(c.Price)
		if err != nil {
			return fmt.Errorf("venuea: parse change price: %w", err)
		}
		qty, err := decimal.NewFromString(c.Quantity)
		if err != nil {
			return fmt.Errorf("venuea: parse change quantity: %w", err)
		}
		side := types.BID
		if c.Side == "sell" {
			side = types.ASK
		}
		s.state.Book.SetQuote(side, price, qty)
	}
	return nil
}

func (s *Stream) applyHeartbeat(data []byte) error {
	var f heartbeatFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venuea: decode heartbeat: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, f.Time)
	if err != nil {
		return fmt.Errorf("venuea: parse heartbeat time: %w", err)
	}

	s.heartbeatMu.Lock()
	defer s.heartbeatMu.Unlock()

	if !s.lastHeartbeat.IsZero() {
		delta := ts.Sub(s.lastHeartbeat)
		if delta < minHeartbeatDelta || delta > maxHeartbeatDelta {
			return fmt.Errorf("venuea: heartbeat delta %s outside [%s, %s]", delta, minHeartbeatDelta, maxHeartbeatDelta)
		}
	}
	s.lastHeartbeat = ts
	return nil
}

func (s *Stream) applySubscriptions(data []byte) error {
	var f subscriptionsFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venuea: decode subscriptions: %w", err)
	}

	want := make(map[string]bool, len(s.channels))
	for _, c := range s.channels {
		want[c] = false
	}
	for _, ch := range f.Channels {
		if _, ok := want[ch.Name]; !ok {
			continue
		}
		if len(ch.ProductIDs) != 1 || ch.ProductIDs[0] != s.symbol {
			return fmt.Errorf("venuea: subscriptions ack symbol mismatch for channel %q", ch.Name)
		}
		want[ch.Name] = true
	}
	for name, got := range want {
		if !got {
			return fmt.Errorf("venuea: subscriptions ack missing requested channel %q", name)
		}
	}
	return nil
}

// applyOrderEvent keeps the Order record for the affected order_id
// consistent with the amount = filled + remaining invariant.
func (s *Stream) applyOrderEvent(eventType string, data []byte) error {
	var f orderEventFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venuea: decode order event: %w", err)
	}

	s.state.Lock()
	defer s.state.Unlock()

	order, exists := s.state.Orders[f.OrderID]

	switch eventType {
	case "received":
		size, err := decimal.NewFromString(f.Size)
		if err != nil {
			return fmt.Errorf("venuea: parse received size: %w", err)
		}
		side := types.BID
		if f.Side == "sell" {
			side = types.ASK
		}
		s.state.Orders[f.OrderID] = &types.Order{
			OrderID:   f.OrderID,
			Side:      side,
			Type:      types.LIMIT,
			Amount:    size,
			Remaining: size,
			Status:    types.OrderOpen,
		}
		return nil
	case "open":
		if !exists {
			return fmt.Errorf("venuea: %w: open for unknown order %s", types.ErrActionNotFound, f.OrderID)
		}
		remaining, err := decimal.NewFromString(f.RemainingSize)
		if err != nil {
			return fmt.Errorf("venuea: parse open remaining: %w", err)
		}
		order.Remaining = remaining
		order.Filled = order.Amount.Sub(remaining)
		return order.CheckInvariant()
	case "match":
		if !exists {
			return fmt.Errorf("venuea: %w: match for unknown order %s", types.ErrActionNotFound, f.OrderID)
		}
		remaining, err := decimal.NewFromString(f.RemainingSize)
		if err != nil {
			return fmt.Errorf("venuea: parse match remaining: %w", err)
		}
		if remaining.GreaterThan(order.Remaining) {
			return fmt.Errorf("venuea: match increased remaining for order %s", f.OrderID)
		}
		order.Remaining = remaining
		order.Filled = order.Amount.Sub(remaining)
		return order.CheckInvariant()
	case "done":
		if !exists {
			return fmt.Errorf("venuea: %w: done for unknown order %s", types.ErrActionNotFound, f.OrderID)
		}
		if order.Remaining.IsZero() {
			order.Status = types.OrderClosed
		} else {
			order.Status = types.OrderCancelled
		}
		return nil
	case "change":
		if !exists {
			return fmt.Errorf("venuea: %w: change for unknown order %s", types.ErrActionNotFound, f.OrderID)
		}
		remaining, err := decimal.NewFromString(f.RemainingSize)
		if err != nil {
			return fmt.Errorf("venuea: parse change remaining: %w", err)
		}
		order.Remaining = remaining
		order.Filled = order.Amount.Sub(remaining)
		return order.CheckInvariant()
	default:
		return fmt.Errorf("venuea: %w: %q", types.ErrUnknownMessageType, eventType)
	}
}

// heartbeatWatchdog wakes every 5s and fails if no heartbeat has been seen
// in the last 10s, independent of the per-heartbeat delta check.
func (s *Stream) heartbeatWatchdog(ctx context.Context) error {
	ticker := time.NewTicker(watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.heartbeatMu.Lock()
			last := s.lastHeartbeat
			s.heartbeatMu.Unlock()

			if last.IsZero() {
				continue
			}
			if time.Since(last) > watchdogStaleAfter {
				return &fatalError{fmt.Errorf("venuea: no heartbeat in over %s", watchdogStaleAfter)}
			}
		}
	}
}
