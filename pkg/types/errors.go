package types

import (
	"errors"
	"sync/atomic"
)

// Sentinel errors returned by venue clients and the strategy. Callers use
// errors.Is against these rather than matching on string content.
var (
	// ErrSequenceGap is returned when a streaming connection observes a
	// socket_sequence or heartbeat-sequence value that is not exactly one
	// greater than the last value seen.
	ErrSequenceGap = errors.New("sequence gap on streaming connection")

	// ErrUnknownMessageType is returned when a venue sends a frame whose
	// type tag this client does not recognize. Market-data frames with an
	// unrecognized type are logged and dropped rather than treated as
	// fatal; order-events frames with an unrecognized type are fatal.
	ErrUnknownMessageType = errors.New("unknown message type")

	// ErrOrderCollision is returned when a venue reports a new order (an
	// "initial" event) whose order id is already present in the venue's
	// tracked orders.
	ErrOrderCollision = errors.New("order id collision")

	// ErrActionNotFound is returned when a venue event references a client
	// order id that does not correspond to any in-flight Action, or an
	// order id that is not among the tracked orders.
	ErrActionNotFound = errors.New("no in-flight action for order id")

	// ErrForbiddenAction is returned when the strategy attempts to enqueue
	// an action that violates its own sanity contract (a MARKET bid, a
	// LIMIT ask, an ask on venue_buy or a bid on venue_sell).
	ErrForbiddenAction = errors.New("action forbidden by current strategy state")
)

var clientOrderIDCounter atomic.Uint64

// NewClientOrderID returns a process-wide unique, monotonically increasing
// identifier for a new Action. It never returns 0, so callers may use 0 as
// an "unassigned" sentinel.
func NewClientOrderID() uint64 {
	return clientOrderIDCounter.Add(1)
}
