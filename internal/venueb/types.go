package venueb

// envelope is decoded first to dispatch on type and check sequencing.
type envelope struct {
	Type            string `json:"type"`
	SocketSequence  *uint64 `json:"socket_sequence"`
}

type marketDataUpdateFrame struct {
	Type           string `json:"type"`
	SocketSequence uint64 `json:"socket_sequence"`
	Events         []struct {
		Type      string `json:"type"`
		Side      string `json:"side"`
		Price     string `json:"price"`
		Remaining string `json:"remaining"`
	} `json:"events"`
}

type orderSubscriptionAckFrame struct {
	Type            string   `json:"type"`
	AccountID       string   `json:"accountId"`
	SymbolFilter    []string `json:"symbolFilter"`
	EventTypeFilter []string `json:"eventTypeFilter"`
	APISessionFilter []string `json:"apiSessionFilter"`
}

type orderHeartbeatFrame struct {
	Type           string `json:"type"`
	SocketSequence uint64 `json:"socket_sequence"`
	Sequence       uint64 `json:"sequence"`
}

// orderEventFrame is the generic shape of initial/accepted/rejected/booked/
// fill/cancelled/cancel_rejected/closed messages; which fields are
// populated depends on type.
type orderEventFrame struct {
	Type           string `json:"type"`
	SocketSequence uint64 `json:"socket_sequence"`
	OrderID        string `json:"order_id"`
	ClientOrderID  string `json:"client_order_id"`
	Side           string `json:"side"`
	OrderType      string `json:"order_type"`
	Price          string `json:"price"`
	OriginalAmount string `json:"original_amount"`
	RemainingAmount string `json:"remaining_amount"`
	ExecutedAmount string `json:"executed_amount"`
	Reason         string `json:"reason"`
}
