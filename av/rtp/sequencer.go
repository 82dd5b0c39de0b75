package rtp

import (
	"sync/atomic"

	"github.com/pion/randutil"
	"github.com/sirupsen/logrus"
)

// Sequencer generates sequential sequence numbers for building RTP packets.
type Sequencer interface {
	NextSequenceNumber() uint16
	RollOverCount() uint64
}

var globalMathRandomGenerator = randutil.NewMathRandomGenerator()

// WrappingSequencer hands out 16-bit sequence numbers and counts how many
// times they wrapped.
//
// The whole state is one atomic counter: the low 16 bits are the next
// sequence number and the remaining bits are the rollover count. Each call
// to NextSequenceNumber is a single atomic add, so concurrent callers never
// observe the same value; numbers are assigned in the order the adds
// complete. Callers that need packet order to match sequence order must
// serialize their calls.
type WrappingSequencer struct {
	state atomic.Uint64
}

// NewFixedSequencer returns a sequencer whose first sequence number is s.
func NewFixedSequencer(s uint16) *WrappingSequencer {
	seq := &WrappingSequencer{}
	seq.state.Store(uint64(s))

	logrus.WithFields(logrus.Fields{
		"function":        "NewFixedSequencer",
		"sequence_number": s,
	}).Debug("Created sequencer")

	return seq
}

// NewRandomSequencer returns a sequencer starting from a uniformly random
// sequence number.
func NewRandomSequencer() *WrappingSequencer {
	return NewFixedSequencer(uint16(globalMathRandomGenerator.Uint32()))
}

// NextSequenceNumber returns the next sequence number. After 0xFFFF is
// returned the rollover count has been incremented and the following call
// returns 0.
func (s *WrappingSequencer) NextSequenceNumber() uint16 {
	return uint16(s.state.Add(1) - 1)
}

// RollOverCount returns the number of times the 16-bit sequence number
// has wrapped.
func (s *WrappingSequencer) RollOverCount() uint64 {
	return s.state.Load() >> 16
}
