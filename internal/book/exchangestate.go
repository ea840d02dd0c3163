package book

import (
	"sync"

	"arb-engine/pkg/types"
)

// Publisher is a simple fan-out notifier: any number of listeners can
// subscribe, and Fire calls each of them. It carries no payload — listeners
// re-read whatever part of ExchangeState they care about, under its lock.
type Publisher struct {
	mu        sync.Mutex
	listeners []func()
}

// Subscribe registers fn to be called on every Fire.
func (p *Publisher) Subscribe(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Fire invokes every subscribed listener in registration order.
func (p *Publisher) Fire() {
	p.mu.Lock()
	listeners := make([]func(), len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// ExchangeState is one venue's live view of the world: its order book, its
// known orders, and its balances. It is created once at venue-client
// construction and mutated exclusively by that venue client for the
// lifetime of the coordinator.
//
// A single RWMutex guards the atomic edit of (Book, Orders, Balance). The
// owning venue client must release the lock before calling Publish — the
// publisher callback (routed to the strategy's on-data hook and to a
// logging callback) must never run while the lock is held, or a listener
// that reads back through ExchangeState would deadlock against itself.
type ExchangeState struct {
	VenueID string

	mu      sync.RWMutex
	Book    *OrderBook
	Orders  map[string]*types.Order
	Balance *Balance

	Publisher *Publisher
}

// NewExchangeState returns a fresh, not-yet-ready state for one venue.
func NewExchangeState(venueID string) *ExchangeState {
	return &ExchangeState{
		VenueID:   venueID,
		Book:      NewOrderBook(),
		Orders:    make(map[string]*types.Order),
		Balance:   NewBalance(),
		Publisher: &Publisher{},
	}
}

// Lock/Unlock/RLock/RUnlock expose the state's single mutex directly: the
// owning venue client locks, edits Book/Orders/Balance in place, unlocks,
// and only then calls Publish. Readers (the strategy, loggers) take RLock.
func (s *ExchangeState) Lock()    { s.mu.Lock() }
func (s *ExchangeState) Unlock()  { s.mu.Unlock() }
func (s *ExchangeState) RLock()   { s.mu.RLock() }
func (s *ExchangeState) RUnlock() { s.mu.RUnlock() }

// Publish fires the update publisher. Must be called with the lock released.
func (s *ExchangeState) Publish() {
	s.Publisher.Fire()
}

// GetOrder returns the order for id under a read lock, and whether it exists.
func (s *ExchangeState) GetOrder(orderID string) (*types.Order, bool) {
	s.RLock()
	defer s.RUnlock()
	o, ok := s.Orders[orderID]
	return o, ok
}
