// Package venuea implements the client for the single-stream level-2 book
// venue: one websocket carrying heartbeat, level2 and order-lifecycle
// frames, and a REST API with no automatic retry on failure.
package venuea

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"time"
)

// Credentials are the pre-provisioned API key triplet for this venue.
type Credentials struct {
	APIKey     string
	Secret     string
	Passphrase string
}

// Auth signs REST and websocket-subscribe requests with HMAC-SHA256.
type Auth struct {
	creds Credentials
}

// NewAuth returns an Auth using the given credentials.
func NewAuth(creds Credentials) *Auth {
	return &Auth{creds: creds}
}

// sign computes base64(HMAC-SHA256(secret, timestamp+method+path+body)).
// The secret is base64-decoded before use, matching the venue's convention.
func (a *Auth) sign(timestamp, method, path, body string) (string, error) {
	secretBytes, err := base64.StdEncoding.DecodeString(a.creds.Secret)
	if err != nil {
		return "", fmt.Errorf("venuea: decode secret: %w", err)
	}

	mac := hmac.New(sha256.New, secretBytes)
	mac.Write([]byte(timestamp + method + path + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// RESTHeaders returns the full authenticated header set for one REST call.
func (a *Auth) RESTHeaders(method, path, body string) (map[string]string, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	sig, err := a.sign(timestamp, method, path, body)
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"CB-ACCESS-SIGN":       sig,
		"CB-ACCESS-TIMESTAMP":  timestamp,
		"CB-ACCESS-KEY":        a.creds.APIKey,
		"CB-ACCESS-PASSPHRASE": a.creds.Passphrase,
		"Content-Type":         "application/json",
	}, nil
}

// SubscribeSignature signs the fixed verify path used to authenticate the
// websocket subscribe frame: HMAC-SHA256(secret, timestamp+"GET"+"/users/self/verify").
func (a *Auth) SubscribeSignature() (signature, timestamp string, err error) {
	timestamp = strconv.FormatInt(time.Now().Unix(), 10)
	sig, err := a.sign(timestamp, "GET", "/users/self/verify", "")
	if err != nil {
		return "", "", err
	}
	return sig, timestamp, nil
}
