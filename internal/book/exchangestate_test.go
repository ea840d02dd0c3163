package book

import (
	"testing"

	"arb-engine/pkg/types"
)

func TestExchangeStatePublishNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	s := NewExchangeState("venue-a")
	fired := 0
	s.Publisher.Subscribe(func() { fired++ })
	s.Publisher.Subscribe(func() { fired++ })

	s.Publish()

	if fired != 2 {
		t.Errorf("fired = %d, want 2", fired)
	}
}

func TestExchangeStateGetOrderMissing(t *testing.T) {
	t.Parallel()

	s := NewExchangeState("venue-a")
	if _, ok := s.GetOrder("does-not-exist"); ok {
		t.Error("GetOrder() on empty state = ok, want false")
	}
}

func TestExchangeStateGetOrderPresent(t *testing.T) {
	t.Parallel()

	s := NewExchangeState("venue-a")
	s.Lock()
	s.Orders["1"] = &types.Order{OrderID: "1"}
	s.Unlock()

	o, ok := s.GetOrder("1")
	if !ok || o.OrderID != "1" {
		t.Errorf("GetOrder(1) = %v, %v, want order 1, true", o, ok)
	}
}

func TestBalanceUnknownCurrencyIsZero(t *testing.T) {
	t.Parallel()

	b := NewBalance()
	bal := b.Get("XYZ")
	if !bal.Free.IsZero() || !bal.OnHold.IsZero() {
		t.Errorf("Get(XYZ) = %+v, want zero balance", bal)
	}
}
