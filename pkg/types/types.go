// Package types is the canonical, venue-agnostic data model shared by every
// venue client, the strategy, and the coordinator: quotes, order books,
// orders, balances, and the tagged-union action that the strategy enqueues
// and a venue client fulfils.
//
// All price/quantity arithmetic in this package and its callers uses
// github.com/shopspring/decimal rather than float64 — the domain's minimum
// units (1 satoshi of quantity, 1 cent of price) must round exactly, which
// binary floating point cannot guarantee.
package types

import (
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Side is which side of the book/order a quote or order sits on.
type Side int

const (
	BID Side = iota
	ASK
)

func (s Side) String() string {
	if s == BID {
		return "BID"
	}
	return "ASK"
}

// OrderType distinguishes resting limit orders from immediate market orders.
type OrderType int

const (
	LIMIT OrderType = iota
	MARKET
)

func (t OrderType) String() string {
	if t == LIMIT {
		return "LIMIT"
	}
	return "MARKET"
}

// OrderStatus is the lifecycle state of an Order. CLOSED and CANCELLED are
// terminal: once reached, the order must never mutate again.
type OrderStatus int

const (
	OrderOpen OrderStatus = iota
	OrderClosed
	OrderCancelled
)

func (s OrderStatus) String() string {
	switch s {
	case OrderOpen:
		return "OPEN"
	case OrderClosed:
		return "CLOSED"
	case OrderCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// IsTerminal reports whether no further mutation of the order is permitted.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderClosed || s == OrderCancelled
}

// ActionStatus tracks an Action from creation through venue confirmation.
type ActionStatus int

const (
	ActionPending ActionStatus = iota
	ActionSuccess
	ActionFailed
)

func (s ActionStatus) String() string {
	switch s {
	case ActionPending:
		return "PENDING"
	case ActionSuccess:
		return "SUCCESS"
	case ActionFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// ActionKind distinguishes the two Action variants.
type ActionKind int

const (
	CreateOrderAction ActionKind = iota
	CancelOrderAction
)

// Quote is a single (price, quantity) level. Quantity 0 is the sentinel used
// by SortedQuotes.SetQuote to mean "remove this level"; a stored Quote is
// never negative on either field.
type Quote struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// Order is one order on a venue, identified by the venue's own order id.
// Invariant: Amount == Filled + Remaining at all times, and Filled never
// decreases. Price is required iff Type == LIMIT.
type Order struct {
	OrderID      string
	Symbol       string
	Side         Side
	Type         OrderType
	Amount       decimal.Decimal
	Price        *decimal.Decimal
	Filled       decimal.Decimal
	Remaining    decimal.Decimal
	AveragePrice *decimal.Decimal
	Status       OrderStatus
}

// CheckInvariant verifies Amount == Filled + Remaining. Callers that mutate
// an Order in place should call this immediately afterwards; a violation
// indicates a venue decoder bug, not a recoverable runtime condition.
func (o *Order) CheckInvariant() error {
	sum := o.Filled.Add(o.Remaining)
	if !sum.Equal(o.Amount) {
		return fmt.Errorf("order %s: amount %s != filled %s + remaining %s", o.OrderID, o.Amount, o.Filled, o.Remaining)
	}
	return nil
}

// Action is the tagged union the strategy enqueues and a venue client
// fulfils. ClientOrderID is assigned once, at creation, from a process-wide
// atomic counter (see NewClientOrderID) — it is the Go-native replacement
// for correlating a venue's echoed client_order_id back to the in-flight
// Action that the Python source obtained via object identity (id(a)).
//
// A venue client resolves an Action from a goroutine that shares no other
// synchronization with the strategy goroutine that enqueued it, so status
// and resultOrder are guarded by mu rather than exported directly; use the
// Status/SetStatus/ResultOrder/SetResultOrder accessors from either side.
type Action struct {
	Kind          ActionKind
	ClientOrderID uint64
	VenueID       string

	// CreateOrder fields.
	Side   Side
	Type   OrderType
	Amount decimal.Decimal
	Price  *decimal.Decimal

	// CancelOrder fields.
	OrderID string

	mu          sync.Mutex
	status      ActionStatus
	resultOrder *Order
}

// Status returns the Action's current resolution state.
func (a *Action) Status() ActionStatus {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// SetStatus resolves the Action. Called once by the venue client that
// fulfils it.
func (a *Action) SetStatus(status ActionStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.status = status
}

// ResultOrder returns the order produced by a successful CreateOrderAction,
// or nil if the action hasn't resolved successfully (yet, or at all).
func (a *Action) ResultOrder() *Order {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.resultOrder
}

// SetResultOrder records the order produced by a successful CreateOrderAction.
func (a *Action) SetResultOrder(order *Order) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.resultOrder = order
}

// SocketState tracks the sequencing invariants of one streaming connection:
// ExpectedSequence must increase by exactly 1 per non-ack message.
type SocketState struct {
	ExpectedSequence  uint64
	HeartbeatCount    uint64
	LastHeartbeatTime time.Time
	Ready             bool
}

// Balance is a currency's free and on-hold amount. Neither field is ever
// negative.
type Balance struct {
	Free   decimal.Decimal
	OnHold decimal.Decimal
}
