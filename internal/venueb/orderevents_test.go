package venueb

import (
	"io"
	"log/slog"
	"testing"

	"arb-engine/internal/book"
	"arb-engine/pkg/types"
)

func newTestOrderEventsStream() *OrderEventsStream {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewOrderEventsStream("wss://example.invalid", "/v1/order/events", nil, "session-1", book.NewExchangeState("venueb"), NewActionRegistry(), logger)
	s.receivedFirst = true
	return s
}

func TestApplyAcceptedResolvesPendingAction(t *testing.T) {
	t.Parallel()

	s := newTestOrderEventsStream()
	action := &types.Action{Kind: types.CreateOrderAction, ClientOrderID: 7, Side: types.BID, Type: types.LIMIT}
	s.registry.RegisterCreate(action)

	data := []byte(`{"type":"accepted","socket_sequence":0,"order_id":"o1","client_order_id":"7","original_amount":"1.0","remaining_amount":"1.0","executed_amount":"0"}`)
	if err := s.applyAccepted(data); err != nil {
		t.Fatalf("applyAccepted() error = %v", err)
	}

	if action.Status() != types.ActionSuccess {
		t.Errorf("action.Status() = %v, want SUCCESS", action.Status())
	}
	if action.ResultOrder() == nil || action.ResultOrder().OrderID != "o1" {
		t.Errorf("action.ResultOrder() = %v, want order o1", action.ResultOrder())
	}
}

func TestApplyAcceptedUnknownClientOrderIDIsFatal(t *testing.T) {
	t.Parallel()

	s := newTestOrderEventsStream()
	data := []byte(`{"type":"accepted","socket_sequence":0,"order_id":"o1","client_order_id":"999","original_amount":"1.0","remaining_amount":"1.0","executed_amount":"0"}`)
	if err := s.applyAccepted(data); err == nil {
		t.Error("applyAccepted() with unknown client_order_id = nil error, want error")
	}
}

func TestApplyRejectedMarksActionFailed(t *testing.T) {
	t.Parallel()

	s := newTestOrderEventsStream()
	action := &types.Action{ClientOrderID: 3}
	s.registry.RegisterCreate(action)

	data := []byte(`{"type":"rejected","socket_sequence":0,"client_order_id":"3","reason":"insufficient funds"}`)
	if err := s.applyRejected(data); err != nil {
		t.Fatalf("applyRejected() error = %v", err)
	}
	if action.Status() != types.ActionFailed {
		t.Errorf("action.Status() = %v, want FAILED", action.Status())
	}
}

func TestApplyFillUpdatesOrderAndClosesWhenDone(t *testing.T) {
	t.Parallel()

	s := newTestOrderEventsStream()
	s.state.Lock()
	s.state.Orders["o1"] = &types.Order{OrderID: "o1", Amount: decimalFromString(t, "1"), Remaining: decimalFromString(t, "1")}
	s.state.Unlock()

	data := []byte(`{"type":"fill","socket_sequence":0,"order_id":"o1","original_amount":"1","remaining_amount":"0","executed_amount":"1"}`)
	if err := s.applyFill(data); err != nil {
		t.Fatalf("applyFill() error = %v", err)
	}

	order, _ := s.state.GetOrder("o1")
	if order.Status != types.OrderClosed {
		t.Errorf("order.Status = %v, want CLOSED", order.Status)
	}
}

func TestApplyCancelledResolvesCancelAction(t *testing.T) {
	t.Parallel()

	s := newTestOrderEventsStream()
	s.state.Lock()
	s.state.Orders["o1"] = &types.Order{OrderID: "o1"}
	s.state.Unlock()

	action := &types.Action{OrderID: "o1"}
	s.registry.RegisterCancel(action)

	data := []byte(`{"type":"cancelled","socket_sequence":0,"order_id":"o1"}`)
	if err := s.applyCancelled(data); err != nil {
		t.Fatalf("applyCancelled() error = %v", err)
	}

	order, _ := s.state.GetOrder("o1")
	if order.Status != types.OrderCancelled {
		t.Errorf("order.Status = %v, want CANCELLED", order.Status)
	}
	if action.Status() != types.ActionSuccess {
		t.Errorf("action.Status() = %v, want SUCCESS", action.Status())
	}
}

func TestApplyCancelledWithoutActionIsFatal(t *testing.T) {
	t.Parallel()

	s := newTestOrderEventsStream()
	s.state.Lock()
	s.state.Orders["o1"] = &types.Order{OrderID: "o1"}
	s.state.Unlock()

	data := []byte(`{"type":"cancelled","socket_sequence":0,"order_id":"o1"}`)
	if err := s.applyCancelled(data); err == nil {
		t.Error("applyCancelled() with no pending CancelOrder action = nil error, want error")
	}
}

func TestDispatchUnknownTypeIsFatal(t *testing.T) {
	t.Parallel()

	s := newTestOrderEventsStream()
	data := []byte(`{"type":"other","socket_sequence":0}`)
	if err := s.dispatch(data); err == nil {
		t.Error("dispatch(other) = nil error, want error")
	}
}

func TestDispatchRequiresSubscriptionAckFirst(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewOrderEventsStream("wss://example.invalid", "/v1/order/events", nil, "session-1", book.NewExchangeState("venueb"), NewActionRegistry(), logger)

	data := []byte(`{"type":"heartbeat","socket_sequence":0,"sequence":1}`)
	if err := s.dispatch(data); err == nil {
		t.Error("dispatch() before subscription_ack = nil error, want error")
	}
}
