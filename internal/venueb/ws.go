package venueb

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	maxReconnectWait = 30 * time.Second
	writeTimeout     = 10 * time.Second
	queueWarnDepth   = 100
)

// fatalError marks a protocol violation that must never be retried away.
type fatalError struct{ err error }

func (f *fatalError) Error() string { return f.err.Error() }
func (f *fatalError) Unwrap() error { return f.err }

func isFatal(err error) bool {
	_, ok := err.(*fatalError)
	return ok
}

// runWithReconnect calls connect repeatedly with exponential backoff
// (1s -> 30s cap) until ctx is cancelled or connect returns a fatal error.
func runWithReconnect(ctx context.Context, label string, logger interface {
	Warn(msg string, args ...any)
}, connect func(context.Context) error) error {
	backoff := time.Second
	for {
		err := connect(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isFatal(err) {
			return err
		}

		logger.Warn("websocket disconnected, reconnecting", "stream", label, "error", err, "backoff", backoff)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxReconnectWait {
			backoff = maxReconnectWait
		}
	}
}

// dialAuthenticated opens a websocket connection with the signed-request
// header triple attached to the upgrade request.
func dialAuthenticated(ctx context.Context, url string, auth *Auth, path string) (*websocket.Conn, error) {
	header := http.Header{}
	if auth != nil {
		signed, err := auth.Sign(path, nil)
		if err != nil {
			return nil, fmt.Errorf("venueb: sign handshake: %w", err)
		}
		for k, v := range signed.Headers() {
			header.Set(k, v)
		}
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("venueb: dial: %w", err)
	}
	return conn, nil
}
