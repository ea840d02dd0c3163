package venuea

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"arb-engine/internal/book"
	"arb-engine/internal/queue"
	"arb-engine/pkg/types"
)

const (
	maxReconnectWait   = 30 * time.Second
	writeTimeout       = 10 * time.Second
	subscribeDeadline  = 5 * time.Second
	minHeartbeatDelta  = 500 * time.Millisecond
	maxHeartbeatDelta  = 1500 * time.Millisecond
	watchdogInterval   = 5 * time.Second
	watchdogStaleAfter = 10 * time.Second
	queueWarnDepth     = 100
)

// Stream owns the single websocket connection to this venue: it reads raw
// frames off the wire into an unbounded queue, and a separate goroutine
// drains that queue, applying each frame to the shared ExchangeState.
type Stream struct {
	url     string
	symbol  string
	auth    *Auth
	state   *book.ExchangeState
	logger  *slog.Logger

	connMu sync.Mutex
	conn   *websocket.Conn

	raw *queue.Queue[[]byte]

	heartbeatMu   sync.Mutex
	lastHeartbeat time.Time

	channels []string
}

// NewStream returns a not-yet-connected stream for symbol against state.
func NewStream(url, symbol string, auth *Auth, state *book.ExchangeState, logger *slog.Logger) *Stream {
	return &Stream{
		url:      url,
		symbol:   symbol,
		auth:     auth,
		state:    state,
		logger:   logger.With("component", "venuea_stream"),
		raw:      queue.New[[]byte](),
		channels: []string{"heartbeat", "level2", "user"},
	}
}

// Run connects and maintains the connection with exponential backoff,
// blocking until ctx is cancelled or a fatal protocol violation occurs.
func (s *Stream) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		err := s.connectAndRead(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if isFatal(err) {
			return err
		}

		s.logger.Warn("websocket disconnected, reconnecting", "error", err, "backoff", backoff)
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

// fatalError marks a protocol violation that must never be retried away.
type fatalError struct{ err error }

func (f *fatalError) Error() string { return f.err.Error() }
func (f *fatalError) Unwrap() error { return f.err }

func isFatal(err error) bool {
	_, ok := err.(*fatalError)
	return ok
}

func (s *Stream) connectAndRead(ctx context.Context) error {
	s.heartbeatMu.Lock()
	s.lastHeartbeat = time.Time{}
	s.heartbeatMu.Unlock()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("venuea: dial: %w", err)
	}

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	defer func() {
		s.connMu.Lock()
		conn.Close()
		s.conn = nil
		s.connMu.Unlock()
	}()

	if err := s.sendSubscribe(); err != nil {
		return fmt.Errorf("venuea: subscribe: %w", err)
	}

	parseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	parseErrCh := make(chan error, 1)
	go func() { parseErrCh <- s.parseLoop(parseCtx) }()

	watchdogErrCh := make(chan error, 1)
	go func() { watchdogErrCh <- s.heartbeatWatchdog(parseCtx) }()

	readErrCh := make(chan error, 1)
	go func() {
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				readErrCh <- err
				return
			}
			depth := s.raw.Push(msg)
			if depth >= queueWarnDepth {
				s.logger.Warn("raw frame queue backed up", "depth", depth)
			}
		}
	}()

	select {
	case err := <-readErrCh:
		return err
	case err := <-parseErrCh:
		return err
	case err := <-watchdogErrCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Stream) sendSubscribe() error {
	frame := subscribeFrame{
		Type:       "subscribe",
		ProductIDs: []string{s.symbol},
		Channels:   s.channels,
	}
	if s.auth != nil {
		sig, ts, err := s.auth.SubscribeSignature()
		if err != nil {
			return err
		}
		frame.Signature = sig
		frame.Timestamp = ts
		frame.Key = s.auth.creds.APIKey
		frame.Passphrase = s.auth.creds.Passphrase
	}
	return s.writeJSON(frame)
}

func (s *Stream) writeJSON(v interface{}) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("venuea: not connected")
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return s.conn.WriteJSON(v)
}

// parseLoop drains the raw frame queue and applies each frame to state.
func (s *Stream) parseLoop(ctx context.Context) error {
	for {
		data, err := s.raw.Pop(ctx)
		if err != nil {
			return nil
		}
		if err := s.dispatch(data); err != nil {
			return &fatalError{err}
		}
		if s.raw.Len() == 0 {
			s.state.Publish()
		}
	}
}

func (s *Stream) dispatch(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Debug("ignoring non-json frame", "data", string(data))
		return nil
	}

	switch env.Type {
	case "snapshot":
		return s.applySnapshot(data)
	case "l2update":
		return s.applyL2Update(data)
	case "heartbeat":
		return s.applyHeartbeat(data)
	case "subscriptions":
		return s.applySubscriptions(data)
	case "received", "open", "match", "done", "change":
		return s.applyOrderEvent(env.Type, data)
	default:
		return fmt.Errorf("venuea: %w: %q", types.ErrUnknownMessageType, env.Type)
	}
}
