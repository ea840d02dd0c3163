package venueb

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"arb-engine/internal/book"
	"arb-engine/internal/ratelimit"
	"arb-engine/pkg/types"
)

const maxRESTAttempts = 4

// restBurst and restRatePerSecond tune the shared order/cancel rate limiter
// down to the conservative single-bucket-per-client scheme this venue's
// lower request volume needs, rather than the multi-category scheme a
// busier exchange's API would require.
const (
	restBurst         = 10
	restRatePerSecond = 5
)

// RESTClient talks to this venue's balance and order endpoints. Every call
// retries up to maxRESTAttempts times on non-2xx, re-signing with a fresh
// nonce on each attempt — resty's built-in retry is not used here because it
// would resend the same signed body, which this venue's nonce scheme
// forbids. Every attempt, including retries, waits on limiter first so a
// string of non-2xx responses backs off instead of hammering the endpoint.
type RESTClient struct {
	http     *resty.Client
	auth     *Auth
	registry *ActionRegistry
	limiter  *ratelimit.TokenBucket
	dryRun   bool
	logger   *slog.Logger
}

// NewRESTClient returns a REST client for this venue.
func NewRESTClient(baseURL string, auth *Auth, registry *ActionRegistry, dryRun bool, logger *slog.Logger) *RESTClient {
	return &RESTClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
		auth:     auth,
		registry: registry,
		limiter:  ratelimit.New(restBurst, restRatePerSecond),
		dryRun:   dryRun,
		logger:   logger.With("component", "venueb_rest"),
	}
}

// post signs and posts body to path, retrying up to maxRESTAttempts times
// with a fresh nonce (and hence a fresh signature) on every attempt.
func (c *RESTClient) post(path string, extra map[string]interface{}, result interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= maxRESTAttempts; attempt++ {
		if err := c.limiter.Wait(context.Background()); err != nil {
			return fmt.Errorf("venueb: rate limiter: %w", err)
		}

		signed, err := c.auth.Sign(path, extra)
		if err != nil {
			return fmt.Errorf("venueb: sign request: %w", err)
		}

		resp, err := c.http.R().
			SetHeaders(signed.Headers()).
			SetResult(result).
			Post(path)
		if err == nil && resp.StatusCode() == http.StatusOK {
			return nil
		}
		if err != nil {
			lastErr = fmt.Errorf("venueb: post %s: %w", path, err)
		} else {
			lastErr = fmt.Errorf("venueb: post %s: status %d: %s", path, resp.StatusCode(), resp.String())
		}
	}
	return fmt.Errorf("venueb: %s failed after %d attempts: %w", path, maxRESTAttempts, lastErr)
}

type balanceEntry struct {
	Currency  string `json:"currency"`
	Amount    string `json:"amount"`
	Available string `json:"available"`
}

// UpdateBalance POSTs /v1/balances and writes free/on_hold per currency:
// free = available, on_hold = amount - available.
func (c *RESTClient) UpdateBalance(state *book.ExchangeState) error {
	var entries []balanceEntry
	if err := c.post("/v1/balances", nil, &entries); err != nil {
		return err
	}

	state.Lock()
	defer state.Unlock()
	for _, e := range entries {
		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			return fmt.Errorf("venueb: parse balance amount: %w", err)
		}
		available, err := decimal.NewFromString(e.Available)
		if err != nil {
			return fmt.Errorf("venueb: parse balance available: %w", err)
		}
		state.Balance.Set(e.Currency, types.Balance{Free: available, OnHold: amount.Sub(available)})
	}
	return nil
}

// marketOrderExtreme is the emulated-market-order price: 0 for sells, a
// large cap for buys, since this venue has no native market order type.
var marketOrderExtreme = map[types.Side]string{
	types.BID: "10000000",
	types.ASK: "0",
}

type newOrderResponse struct {
	OrderID         string `json:"order_id"`
	OriginalAmount  string `json:"original_amount"`
	RemainingAmount string `json:"remaining_amount"`
	ExecutedAmount  string `json:"executed_amount"`
}

// ExecuteCreateOrder submits action via POST /order/new. Success here only
// means the venue accepted the submission; the action's terminal status is
// set asynchronously when the order-events stream reports accepted or
// rejected. If all retries are exhausted the action's status is left
// untouched and a fatal error propagates instead — this venue never
// silently flips an action to FAILED on REST failure.
func (c *RESTClient) ExecuteCreateOrder(symbol string, action *types.Action) error {
	c.registry.RegisterCreate(action)

	price := ""
	options := []string{}
	if action.Type == types.MARKET {
		price = marketOrderExtreme[action.Side]
		options = []string{"immediate-or-cancel"}
	} else if action.Price != nil {
		price = action.Price.String()
	}

	side := "buy"
	if action.Side == types.ASK {
		side = "sell"
	}

	var result newOrderResponse
	extra := map[string]interface{}{
		"client_order_id": fmt.Sprintf("%d", action.ClientOrderID),
		"symbol":          symbol,
		"amount":          action.Amount.String(),
		"price":           price,
		"side":            side,
		"type":            "exchange limit",
		"options":         options,
	}
	if err := c.post("/v1/order/new", extra, &result); err != nil {
		return err
	}
	return nil
}

// ExecuteCancelOrder submits action via POST /order/cancel. As with create,
// the action's terminal status is set by the order-events stream's
// cancelled/cancel_rejected events.
func (c *RESTClient) ExecuteCancelOrder(action *types.Action) error {
	c.registry.RegisterCancel(action)

	var result struct {
		OrderID string `json:"order_id"`
	}
	extra := map[string]interface{}{"order_id": action.OrderID}
	return c.post("/v1/order/cancel", extra, &result)
}
