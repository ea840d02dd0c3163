package venuea

import "encoding/json"

// subscribeFrame is the one subscribe message sent on connect, naming the
// channels and symbols this client wants, plus auth fields when available.
type subscribeFrame struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
	Signature  string   `json:"signature,omitempty"`
	Key        string   `json:"key,omitempty"`
	Passphrase string   `json:"passphrase,omitempty"`
	Timestamp  string   `json:"timestamp,omitempty"`
}

// envelope is decoded first to dispatch on type.
type envelope struct {
	Type string `json:"type"`
}

type snapshotFrame struct {
	Type      string     `json:"type"`
	ProductID string     `json:"product_id"`
	Bids      [][]string `json:"bids"`
	Asks      [][]string `json:"asks"`
}

type l2Change struct {
	Side     string
	Price    string
	Quantity string
}

// UnmarshalJSON decodes a [side, price, quantity] triple.
func (c *l2Change) UnmarshalJSON(data []byte) error {
	var triple [3]string
	if err := json.Unmarshal(data, &triple); err != nil {
		return err
	}
	c.Side, c.Price, c.Quantity = triple[0], triple[1], triple[2]
	return nil
}

type l2UpdateFrame struct {
	Type      string     `json:"type"`
	ProductID string     `json:"product_id"`
	Changes   []l2Change `json:"changes"`
	Time      string     `json:"time"`
}

type heartbeatFrame struct {
	Type      string `json:"type"`
	Sequence  uint64 `json:"sequence"`
	ProductID string `json:"product_id"`
	Time      string `json:"time"`
}

type subscriptionsFrame struct {
	Type     string `json:"type"`
	Channels []struct {
		Name       string   `json:"name"`
		ProductIDs []string `json:"product_ids"`
	} `json:"channels"`
}

// orderEventFrame covers received|open|match|done|change — the venue keys
// the same order-lifecycle schema on type, varying which fields are set.
type orderEventFrame struct {
	Type          string `json:"type"`
	OrderID       string `json:"order_id"`
	ClientOID     string `json:"client_oid"`
	Side          string `json:"side"`
	Price         string `json:"price"`
	Size          string `json:"size"`
	RemainingSize string `json:"remaining_size"`
	Reason        string `json:"reason"`
}
