package rtp

import (
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Statistics holds packet counters for one direction of a stream.
type Statistics struct {
	PacketsSent          uint64
	PayloadBytesSent     uint64
	BytesSent            uint64
	PacketsReceived      uint64
	PayloadBytesReceived uint64
	PacketsLost          uint64
	PacketsOutOfOrder    uint64
}

// NewRandomSSRC returns a uniformly random synchronization source id.
func NewRandomSSRC() uint32 {
	return globalMathRandomGenerator.Uint32()
}

// Stream is the send side of one RTP stream: a packetizer, the payloader
// for its codec and the sequencer that numbers its packets.
//
// Stream performs no I/O; WriteSample returns wire datagrams for the
// caller to transmit.
type Stream struct {
	mu         sync.Mutex
	packetizer *Packetizer
	payloader  Payloader
	sequencer  Sequencer

	stats Statistics
}

// NewStream creates a send stream.
//
// Parameters:
//   - packetizer: Header state for the stream
//   - payloader: Codec specific fragmenter
//   - sequencer: Sequence number source owned by this stream
//
// Returns:
//   - *Stream: New stream instance
//   - error: Any nil collaborator
func NewStream(packetizer *Packetizer, payloader Payloader, sequencer Sequencer) (*Stream, error) {
	if packetizer == nil {
		return nil, fmt.Errorf("packetizer cannot be nil")
	}
	if payloader == nil {
		return nil, fmt.Errorf("payloader cannot be nil")
	}
	if sequencer == nil {
		return nil, fmt.Errorf("sequencer cannot be nil")
	}

	logrus.WithFields(logrus.Fields{
		"function":   "NewStream",
		"ssrc":       packetizer.SSRC(),
		"clock_rate": packetizer.ClockRate(),
	}).Info("Created RTP stream")

	return &Stream{
		packetizer: packetizer,
		payloader:  payloader,
		sequencer:  sequencer,
	}, nil
}

// WriteSample packetizes one media sample and marshals every packet.
//
// Parameters:
//   - r: Encoded media sample
//   - samples: Sample duration in clock rate units
//
// Returns:
//   - [][]byte: Wire datagrams in sequence order
//   - error: Any packetization or marshal error
func (s *Stream) WriteSample(r io.Reader, samples uint32) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	packets, err := s.packetizer.Packetize(r, s.payloader, s.sequencer, samples)
	if err != nil {
		return nil, fmt.Errorf("failed to packetize sample: %w", err)
	}

	datagrams := make([][]byte, 0, len(packets))
	var payloadBytes, wireBytes uint64
	for _, packet := range packets {
		raw, err := packet.Marshal()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function":        "Stream.WriteSample",
				"sequence_number": packet.SequenceNumber,
				"error":           err.Error(),
			}).Error("Failed to marshal RTP packet")
			return nil, fmt.Errorf("failed to marshal RTP packet: %w", err)
		}
		datagrams = append(datagrams, raw)
		payloadBytes += uint64(len(packet.Payload))
		wireBytes += uint64(len(raw))
	}

	s.stats.PacketsSent += uint64(len(datagrams))
	s.stats.PayloadBytesSent += payloadBytes
	s.stats.BytesSent += wireBytes

	logrus.WithFields(logrus.Fields{
		"function":     "Stream.WriteSample",
		"packet_count": len(datagrams),
		"wire_bytes":   wireBytes,
	}).Debug("Wrote media sample")

	return datagrams, nil
}

// Packetizer returns the stream's packetizer.
func (s *Stream) Packetizer() *Packetizer {
	return s.packetizer
}

// RollOverCount returns how often the stream's sequence numbers wrapped.
func (s *Stream) RollOverCount() uint64 {
	return s.sequencer.RollOverCount()
}

// GetStatistics returns current send statistics.
func (s *Stream) GetStatistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}
