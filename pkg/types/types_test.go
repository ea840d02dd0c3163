package types

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderCheckInvariantOK(t *testing.T) {
	t.Parallel()

	o := &Order{
		OrderID:   "1",
		Amount:    decimal.NewFromInt(10),
		Filled:    decimal.NewFromInt(4),
		Remaining: decimal.NewFromInt(6),
	}
	if err := o.CheckInvariant(); err != nil {
		t.Errorf("CheckInvariant() = %v, want nil", err)
	}
}

func TestOrderCheckInvariantMismatch(t *testing.T) {
	t.Parallel()

	o := &Order{
		OrderID:   "2",
		Amount:    decimal.NewFromInt(10),
		Filled:    decimal.NewFromInt(4),
		Remaining: decimal.NewFromInt(5),
	}
	if err := o.CheckInvariant(); err == nil {
		t.Error("CheckInvariant() = nil, want error")
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status OrderStatus
		want   bool
	}{
		{OrderOpen, false},
		{OrderClosed, true},
		{OrderCancelled, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("OrderStatus(%v).IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestSideString(t *testing.T) {
	t.Parallel()

	if BID.String() != "BID" {
		t.Errorf("BID.String() = %q, want BID", BID.String())
	}
	if ASK.String() != "ASK" {
		t.Errorf("ASK.String() = %q, want ASK", ASK.String())
	}
}

func TestActionStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status ActionStatus
		want   string
	}{
		{ActionPending, "PENDING"},
		{ActionSuccess, "SUCCESS"},
		{ActionFailed, "FAILED"},
		{ActionStatus(99), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("ActionStatus(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func TestNewClientOrderIDMonotonic(t *testing.T) {
	t.Parallel()

	a := NewClientOrderID()
	b := NewClientOrderID()
	if a == 0 || b == 0 {
		t.Fatalf("NewClientOrderID() returned 0: a=%d b=%d", a, b)
	}
	if b <= a {
		t.Errorf("NewClientOrderID() not monotonic: a=%d b=%d", a, b)
	}
}

func TestSentinelErrorsAreDistinct(t *testing.T) {
	t.Parallel()

	if errors.Is(ErrSequenceGap, ErrActionNotFound) {
		t.Error("ErrSequenceGap should not match ErrActionNotFound")
	}
}
