package venueb

import (
	"fmt"

	"arb-engine/pkg/types"
)

// sequencer tracks the socket_sequence invariant of one streaming
// connection: every non-ack message must carry exactly the expected value,
// then the expectation advances by one. subscription_ack is exempt from the
// check itself but must arrive while the expectation is still zero.
type sequencer struct {
	state types.SocketState
}

func (s *sequencer) checkAck() error {
	if s.state.ExpectedSequence != 0 {
		return fmt.Errorf("venueb: subscription_ack arrived after socket_sequence %d", s.state.ExpectedSequence)
	}
	s.state.Ready = true
	return nil
}

func (s *sequencer) check(socketSequence uint64) error {
	if socketSequence != s.state.ExpectedSequence {
		return fmt.Errorf("venueb: %w: got %d, want %d", types.ErrSequenceGap, socketSequence, s.state.ExpectedSequence)
	}
	s.state.ExpectedSequence++
	return nil
}

// heartbeatSequencer tracks the order-events stream's second, independent
// sequence counter carried only on heartbeat frames. The first heartbeat
// observed on a connection must carry sequence 0 — a feed that starts mid-
// sequence is rejected rather than silently adopted as a new baseline.
type heartbeatSequencer struct {
	expected uint64
}

func (h *heartbeatSequencer) check(seq uint64) error {
	if seq != h.expected {
		return fmt.Errorf("venueb: %w: heartbeat sequence got %d, want %d", types.ErrSequenceGap, seq, h.expected)
	}
	h.expected++
	return nil
}
