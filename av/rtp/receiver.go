package rtp

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Receiver is the receive side of one RTP stream.
//
// It locks onto the SSRC of the first packet, tracks sequence gaps and
// wraparound, and hands payloads to a Depacketizer.
type Receiver struct {
	mu           sync.Mutex
	depacketizer Depacketizer
	expectedSSRC uint32
	hasSSRC      bool
	lastSeq      uint16
	hasLastSeq   bool
	cycles       uint64

	stats Statistics
}

// NewReceiver creates a receiver that depacketizes with d.
func NewReceiver(d Depacketizer) (*Receiver, error) {
	if d == nil {
		return nil, fmt.Errorf("depacketizer cannot be nil")
	}

	logrus.WithFields(logrus.Fields{
		"function": "NewReceiver",
	}).Info("Created RTP receiver")

	return &Receiver{depacketizer: d}, nil
}

// ProcessPacket parses an incoming datagram and depacketizes its payload.
//
// Parameters:
//   - raw: Raw RTP datagram
//
// Returns:
//   - []byte: Depacketized media payload
//   - *Packet: The parsed packet
//   - error: Parse, SSRC or depacketizer error
func (r *Receiver) ProcessPacket(raw []byte) ([]byte, *Packet, error) {
	packet := &Packet{}
	if err := packet.Unmarshal(raw); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "Receiver.ProcessPacket",
			"data_size": len(raw),
			"error":     err.Error(),
		}).Error("Failed to unmarshal RTP packet")
		return nil, nil, fmt.Errorf("failed to unmarshal RTP packet: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.hasSSRC {
		r.expectedSSRC = packet.SSRC
		r.hasSSRC = true
		logrus.WithFields(logrus.Fields{
			"function": "Receiver.ProcessPacket",
			"ssrc":     packet.SSRC,
		}).Info("Accepted new SSRC for stream")
	} else if packet.SSRC != r.expectedSSRC {
		logrus.WithFields(logrus.Fields{
			"function":      "Receiver.ProcessPacket",
			"expected_ssrc": r.expectedSSRC,
			"received_ssrc": packet.SSRC,
		}).Warn("Unexpected SSRC in RTP packet")
		return nil, nil, fmt.Errorf("%w: expected %d, got %d", ErrUnexpectedSSRC, r.expectedSSRC, packet.SSRC)
	}

	media, err := r.depacketizer.Depacketize(packet.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to depacketize: %w", err)
	}

	r.trackSequence(packet.SequenceNumber)
	r.stats.PacketsReceived++
	r.stats.PayloadBytesReceived += uint64(len(packet.Payload))

	return media, packet, nil
}

// trackSequence updates loss and wraparound state. A forward distance
// below half the sequence space is a gap; anything else is a late or
// duplicate packet.
func (r *Receiver) trackSequence(seq uint16) {
	if !r.hasLastSeq {
		r.lastSeq = seq
		r.hasLastSeq = true
		return
	}

	delta := seq - r.lastSeq
	switch {
	case delta == 0 || delta >= 0x8000:
		r.stats.PacketsOutOfOrder++
		logrus.WithFields(logrus.Fields{
			"function":          "Receiver.ProcessPacket",
			"last_sequence":     r.lastSeq,
			"received_sequence": seq,
		}).Debug("Late or duplicate RTP packet")
		return
	case delta > 1:
		r.stats.PacketsLost += uint64(delta - 1)
		logrus.WithFields(logrus.Fields{
			"function":          "Receiver.ProcessPacket",
			"expected_sequence": r.lastSeq + 1,
			"received_sequence": seq,
		}).Warn("Sequence gap detected in RTP stream")
	}

	if seq < r.lastSeq {
		r.cycles++
	}
	r.lastSeq = seq
}

// ExtendedSequenceNumber returns the highest sequence number seen with
// the wraparound count in the upper bits.
func (r *Receiver) ExtendedSequenceNumber() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.cycles<<16 | uint64(r.lastSeq)
}

// GetStatistics returns current receive statistics.
func (r *Receiver) GetStatistics() Statistics {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stats
}
