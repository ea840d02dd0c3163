// Package venueb implements the client for the split market-data /
// private-order-events venue: two independent websockets, each with its own
// sequencing discipline, and a REST API that retries on failure, re-signing
// with a fresh nonce on every attempt.
package venueb

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"
)

// Credentials are the pre-provisioned API key/secret pair for this venue.
type Credentials struct {
	APIKey string
	Secret string
}

// Auth signs REST and websocket-subscribe requests with HMAC-SHA384 over a
// base64-encoded JSON payload, per this venue's request-signing convention.
type Auth struct {
	creds Credentials
	nonce atomic.Int64
}

// NewAuth returns an Auth seeded with the current time as its first nonce.
func NewAuth(creds Credentials) *Auth {
	a := &Auth{creds: creds}
	a.nonce.Store(time.Now().UnixMilli())
	return a
}

// nextNonce returns a monotonically increasing millisecond nonce: each call
// advances past both the wall clock and the previous value, so retries that
// happen faster than 1ms apart still get a fresh nonce.
func (a *Auth) nextNonce() int64 {
	for {
		prev := a.nonce.Load()
		next := time.Now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if a.nonce.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// SignedRequest is the {X-PAYLOAD, X-APIKEY, X-SIGNATURE} header triple for
// one authenticated call, computed fresh each time Sign is called.
type SignedRequest struct {
	Payload   string
	APIKey    string
	Signature string
}

// Headers returns this SignedRequest as an HTTP header map.
func (r SignedRequest) Headers() map[string]string {
	return map[string]string{
		"X-PAYLOAD":   r.Payload,
		"X-APIKEY":    r.APIKey,
		"X-SIGNATURE": r.Signature,
	}
}

// Sign builds the authenticated payload for path, merges in extra fields
// (e.g. client_order_id, symbol), and signs it with HMAC-SHA384. Every call
// draws a fresh nonce, which is what makes this safe to call again on a
// retry.
func (a *Auth) Sign(path string, extra map[string]interface{}) (SignedRequest, error) {
	body := map[string]interface{}{
		"request": path,
		"nonce":   a.nextNonce(),
	}
	for k, v := range extra {
		body[k] = v
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return SignedRequest{}, fmt.Errorf("venueb: marshal payload: %w", err)
	}
	b64 := base64.StdEncoding.EncodeToString(raw)

	mac := hmac.New(sha512.New384, []byte(a.creds.Secret))
	mac.Write([]byte(b64))
	sig := hex.EncodeToString(mac.Sum(nil))

	return SignedRequest{Payload: b64, APIKey: a.creds.APIKey, Signature: sig}, nil
}
