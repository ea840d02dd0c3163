package venueb

import (
	"strconv"
	"sync"

	"arb-engine/pkg/types"
)

// ActionRegistry tracks in-flight Actions between the moment this venue's
// REST client submits them and the moment the order-events stream confirms
// or rejects them. CreateOrder actions are keyed by ClientOrderID (the
// venue echoes it back verbatim); CancelOrder actions are keyed by the
// order id being cancelled.
type ActionRegistry struct {
	mu              sync.Mutex
	byClientOrderID map[string]*types.Action
	byOrderID       map[string]*types.Action
}

// NewActionRegistry returns an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{
		byClientOrderID: make(map[string]*types.Action),
		byOrderID:       make(map[string]*types.Action),
	}
}

// RegisterCreate records a pending CreateOrder action, keyed by its
// ClientOrderID.
func (r *ActionRegistry) RegisterCreate(action *types.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byClientOrderID[strconv.FormatUint(action.ClientOrderID, 10)] = action
}

// ResolveCreate removes and returns the pending CreateOrder action for
// clientOrderID, if any.
func (r *ActionRegistry) ResolveCreate(clientOrderID string) (*types.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byClientOrderID[clientOrderID]
	if ok {
		delete(r.byClientOrderID, clientOrderID)
	}
	return a, ok
}

// RegisterCancel records a pending CancelOrder action, keyed by the order id
// it targets.
func (r *ActionRegistry) RegisterCancel(action *types.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byOrderID[action.OrderID] = action
}

// ResolveCancel removes and returns the pending CancelOrder action for
// orderID, if any.
func (r *ActionRegistry) ResolveCancel(orderID string) (*types.Action, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byOrderID[orderID]
	if ok {
		delete(r.byOrderID, orderID)
	}
	return a, ok
}
