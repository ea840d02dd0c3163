package venuea

import (
	"context"
	"encoding/json"
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

// restBurst and restRatePerSecond tune this venue's single rate-limit
// bucket; since there is no retry loop here, this only smooths repeated
// calls across actions, not attempts within one call.
const (
	restBurst         = 10
	restRatePerSecond = 5
)

// RESTClient talks to this venue's order and account endpoints. Unlike the
// other venue, a non-2xx response here is never retried: the matching
// Action is simply marked FAILED and the failure is logged, per the single
// `_send_http_request` call this venue's REST semantics are grounded on.
// Every call waits on limiter first to keep this venue's request rate
// bounded regardless of how often the strategy enqueues actions.
type RESTClient struct {
	http    *resty.Client
	auth    *Auth
	limiter *ratelimit.TokenBucket
	dryRun  bool
	logger  *slog.Logger
}

// NewRESTClient returns a REST client with no retry policy.
func NewRESTClient(baseURL string, auth *Auth, dryRun bool, logger *slog.Logger) *RESTClient {
	return &RESTClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Content-Type", "application/json"),
		auth:    auth,
		limiter: ratelimit.New(restBurst, restRatePerSecond),
		dryRun:  dryRun,
		logger:  logger.With("component", "venuea_rest"),
	}
}

type accountEntry struct {
	Currency  string `json:"currency"`
	Available string `json:"available"`
	Hold      string `json:"hold"`
}

// UpdateBalance GETs /accounts and writes free/on_hold for every currency.
func (c *RESTClient) UpdateBalance(state *book.ExchangeState) error {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return fmt.Errorf("venuea: rate limiter: %w", err)
	}

	headers, err := c.auth.RESTHeaders(http.MethodGet, "/accounts", "")
	if err != nil {
		return fmt.Errorf("venuea: auth headers: %w", err)
	}

	var accounts []accountEntry
	resp, err := c.http.R().
		SetHeaders(headers).
		SetResult(&accounts).
		Get("/accounts")
	if err != nil {
		return fmt.Errorf("venuea: get accounts: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("venuea: get accounts: status %d: %s", resp.StatusCode(), resp.String())
	}

	state.Lock()
	defer state.Unlock()
	for _, acc := range accounts {
		free, err := decimal.NewFromString(acc.Available)
		if err != nil {
			return fmt.Errorf("venuea: parse available: %w", err)
		}
		hold, err := decimal.NewFromString(acc.Hold)
		if err != nil {
			return fmt.Errorf("venuea: parse hold: %w", err)
		}
		state.Balance.Set(acc.Currency, types.Balance{Free: free, OnHold: hold})
	}
	return nil
}

type orderRequest struct {
	ClientOID string `json:"client_oid"`
	ProductID string `json:"product_id"`
	Side      string `json:"side"`
	Type      string `json:"type"`
	Price     string `json:"price,omitempty"`
	Size      string `json:"size"`
}

type orderResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	Size          string `json:"size"`
	FilledSize    string `json:"filled_size"`
	ExecutedValue string `json:"executed_value"`
}

// ExecuteCreateOrder places action's order via POST /orders. Non-2xx marks
// the action FAILED rather than returning an error — this venue never
// retries.
func (c *RESTClient) ExecuteCreateOrder(symbol string, action *types.Action) {
	if err := c.limiter.Wait(context.Background()); err != nil {
		c.fail(action, fmt.Errorf("venuea: rate limiter: %w", err))
		return
	}

	side := "buy"
	if action.Side == types.ASK {
		side = "sell"
	}
	typ := "limit"
	if action.Type == types.MARKET {
		typ = "market"
	}

	req := orderRequest{
		ClientOID: fmt.Sprintf("%d", action.ClientOrderID),
		ProductID: symbol,
		Side:      side,
		Type:      typ,
		Size:      action.Amount.String(),
	}
	if action.Price != nil {
		req.Price = action.Price.String()
	}

	body, err := json.Marshal(req)
	if err != nil {
		c.fail(action, fmt.Errorf("venuea: marshal order: %w", err))
		return
	}
	headers, err := c.auth.RESTHeaders(http.MethodPost, "/orders", string(body))
	if err != nil {
		c.fail(action, fmt.Errorf("venuea: auth headers: %w", err))
		return
	}

	var result orderResponse
	resp, err := c.http.R().
		SetHeaders(headers).
		SetBody(req).
		SetResult(&result).
		Post("/orders")
	if err != nil {
		c.fail(action, fmt.Errorf("venuea: post orders: %w", err))
		return
	}
	if resp.StatusCode() != http.StatusOK {
		c.fail(action, fmt.Errorf("venuea: post orders: status %d: %s", resp.StatusCode(), resp.String()))
		return
	}

	size, _ := decimal.NewFromString(result.Size)
	filled, _ := decimal.NewFromString(result.FilledSize)
	action.SetResultOrder(&types.Order{
		OrderID:   result.ID,
		Symbol:    symbol,
		Side:      action.Side,
		Type:      action.Type,
		Amount:    size,
		Price:     action.Price,
		Filled:    filled,
		Remaining: size.Sub(filled),
		Status:    types.OrderOpen,
	})
	action.SetStatus(types.ActionSuccess)
}

// ExecuteCancelOrder cancels action's order via DELETE /orders/{id}.
func (c *RESTClient) ExecuteCancelOrder(action *types.Action) {
	if err := c.limiter.Wait(context.Background()); err != nil {
		c.fail(action, fmt.Errorf("venuea: rate limiter: %w", err))
		return
	}

	path := "/orders/" + action.OrderID
	headers, err := c.auth.RESTHeaders(http.MethodDelete, path, "")
	if err != nil {
		c.fail(action, fmt.Errorf("venuea: auth headers: %w", err))
		return
	}

	resp, err := c.http.R().
		SetHeaders(headers).
		Delete(path)
	if err != nil {
		c.fail(action, fmt.Errorf("venuea: delete order: %w", err))
		return
	}
	if resp.StatusCode() != http.StatusOK {
		c.fail(action, fmt.Errorf("venuea: delete order: status %d: %s", resp.StatusCode(), resp.String()))
		return
	}
	action.SetStatus(types.ActionSuccess)
}

func (c *RESTClient) fail(action *types.Action, err error) {
	c.logger.Error("action failed", "error", err, "venue", action.VenueID, "client_order_id", action.ClientOrderID)
	action.SetStatus(types.ActionFailed)
}
