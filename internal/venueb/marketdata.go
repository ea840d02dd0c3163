package venueb

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"arb-engine/internal/book"
	"arb-engine/internal/queue"
	"arb-engine/pkg/types"
)

// MarketDataStream is the public, unauthenticated change-event feed. It
// checks only socket_sequence — it carries no independent heartbeat
// sequence, and a non-"update" frame (e.g. a heartbeat riding this stream)
// is logged and ignored rather than treated as fatal.
type MarketDataStream struct {
	url    string
	state  *book.ExchangeState
	logger *slog.Logger

	connMu sync.Mutex
	conn   *websocket.Conn

	raw *queue.Queue[[]byte]
	seq sequencer

	receivedFirst bool
}

// NewMarketDataStream returns a not-yet-connected market-data stream.
func NewMarketDataStream(url string, state *book.ExchangeState, logger *slog.Logger) *MarketDataStream {
	return &MarketDataStream{
		url:    url,
		state:  state,
		logger: logger.With("component", "venueb_marketdata"),
		raw:    queue.New[[]byte](),
	}
}

// Run maintains the connection, blocking until ctx is cancelled or a fatal
// protocol violation occurs.
func (s *MarketDataStream) Run(ctx context.Context) error {
	return runWithReconnect(ctx, "marketdata", s.logger, s.connectAndRead)
}

func (s *MarketDataStream) connectAndRead(ctx context.Context) error {
	conn, err := dialAuthenticated(ctx, s.url, nil, "")
	if err != nil {
		return err
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

	s.seq = sequencer{}
	s.receivedFirst = false

	parseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	parseErrCh := make(chan error, 1)
	go func() { parseErrCh <- s.parseLoop(parseCtx) }()

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
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MarketDataStream) parseLoop(ctx context.Context) error {
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

func (s *MarketDataStream) dispatch(data []byte) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Debug("ignoring non-json frame", "data", string(data))
		return nil
	}

	if env.Type == "subscription_ack" {
		if err := s.seq.checkAck(); err != nil {
			return err
		}
		s.receivedFirst = true
		return nil
	}

	if !s.receivedFirst {
		return fmt.Errorf("venueb: marketdata stream opened with %q, want subscription_ack", env.Type)
	}

	if env.SocketSequence == nil {
		return fmt.Errorf("venueb: marketdata frame %q missing socket_sequence", env.Type)
	}
	if err := s.seq.check(*env.SocketSequence); err != nil {
		return err
	}

	if env.Type != "update" {
		s.logger.Debug("ignoring non-update marketdata frame", "type", env.Type)
		return nil
	}

	var f marketDataUpdateFrame
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("venueb: decode update frame: %w", err)
	}

	s.state.Lock()
	defer s.state.Unlock()
	for _, evt := range f.Events {
		if evt.Type != "change" {
			continue
		}
		price, err := decimal.NewFromString(evt.Price)
		if err != nil {
			return fmt.Errorf("venueb: parse change price: %w", err)
		}
		remaining, err := decimal.NewFromString(evt.Remaining)
		if err != nil {
			return fmt.Errorf("venueb: parse change remaining: %w", err)
		}
		side := types.BID
		if evt.Side == "ask" {
			side = types.ASK
		}
		s.state.Book.SetQuote(side, price, remaining)
	}
	s.state.Book.MarkReady()
	return nil
}
