package rtp

import (
	"fmt"
	"io"
	"sync"

	"github.com/opd-ai/toxrtp/av/rtp/extension"
	"github.com/sirupsen/logrus"
)

// DefaultMTU is the packet size budget used when none is configured.
const DefaultMTU = 1200

// Payloader splits a media payload into chunks that fit in RTP packets.
//
// Implementations must return no chunks for empty input and, when mtu is
// positive, must not return a chunk larger than mtu unless the codec
// forbids fragmentation.
type Payloader interface {
	Payload(mtu int, r io.Reader) ([][]byte, error)
}

// Depacketizer removes codec specific framing from an RTP payload.
// Implementations fail on an empty payload.
type Depacketizer interface {
	Depacketize(payload []byte) ([]byte, error)
}

// Packetizer turns media payloads into RTP packets for one stream.
//
// All packets from one Packetize call share a timestamp; the running
// timestamp advances by the sample count after each successful call.
// The payloader is given mtu-12 bytes per chunk, so a packet that also
// carries the abs-send-time extension can exceed the MTU by the extension
// overhead.
type Packetizer struct {
	mu           sync.Mutex
	mtu          int
	payloadType  uint8
	ssrc         uint32
	clockRate    uint32
	timestamp    uint32
	absSendTime  uint8
	timeProvider TimeProvider
}

// NewPacketizer creates a packetizer using the wall clock for abs-send-time.
//
// Parameters:
//   - mtu: Maximum packet size including the fixed header
//   - payloadType: RTP payload type (7 bits)
//   - ssrc: Synchronization source of the stream
//   - clockRate: Media clock rate in Hz
//   - timestamp: Initial RTP timestamp
//
// Returns:
//   - *Packetizer: New packetizer instance
//   - error: Invalid configuration
func NewPacketizer(mtu int, payloadType uint8, ssrc, clockRate, timestamp uint32) (*Packetizer, error) {
	return NewPacketizerWithTimeProvider(mtu, payloadType, ssrc, clockRate, timestamp, nil)
}

// NewPacketizerWithTimeProvider creates a packetizer that reads send times
// from tp. A nil tp selects the system clock.
func NewPacketizerWithTimeProvider(mtu int, payloadType uint8, ssrc, clockRate, timestamp uint32, tp TimeProvider) (*Packetizer, error) {
	logrus.WithFields(logrus.Fields{
		"function":     "NewPacketizer",
		"mtu":          mtu,
		"payload_type": payloadType,
		"ssrc":         ssrc,
		"clock_rate":   clockRate,
	}).Info("Creating new packetizer")

	if clockRate == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "NewPacketizer",
			"error":    "clock rate cannot be zero",
		}).Error("Invalid clock rate")
		return nil, fmt.Errorf("clock rate cannot be zero")
	}
	if mtu <= HeaderLength {
		logrus.WithFields(logrus.Fields{
			"function": "NewPacketizer",
			"mtu":      mtu,
			"error":    "mtu leaves no room for payload",
		}).Error("Invalid MTU")
		return nil, fmt.Errorf("mtu %d must be larger than the %d byte header", mtu, HeaderLength)
	}

	return &Packetizer{
		mtu:          mtu,
		payloadType:  payloadType & ptMask,
		ssrc:         ssrc,
		clockRate:    clockRate,
		timestamp:    timestamp,
		timeProvider: getTimeProvider(tp),
	}, nil
}

// EnableAbsSendTime attaches an abs-send-time extension with the given id
// to the last packet of every Packetize call. Zero disables it.
func (p *Packetizer) EnableAbsSendTime(id uint8) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.absSendTime = id
}

// Packetize reads one media payload from r and returns its RTP packets in
// order.
//
// Parameters:
//   - r: Source of the media payload
//   - payloader: Codec specific fragmenter
//   - sequencer: Source of sequence numbers, called once per packet
//   - samples: Duration of the payload in clock rate units
//
// Returns:
//   - []*Packet: Packets with the marker bit on the last one
//   - error: Payloader or extension error; the timestamp is unchanged
func (p *Packetizer) Packetize(r io.Reader, payloader Payloader, sequencer Sequencer, samples uint32) ([]*Packet, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	payloads, err := payloader.Payload(p.mtu-HeaderLength, r)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Packetizer.Packetize",
			"error":    err.Error(),
		}).Error("Payloader failed")
		return nil, fmt.Errorf("payloader failed: %w", err)
	}

	packets := make([]*Packet, len(payloads))
	for i, payload := range payloads {
		packets[i] = &Packet{
			Header: Header{
				Version:        2,
				Padding:        false,
				Extension:      false,
				Marker:         i == len(payloads)-1,
				PayloadType:    p.payloadType,
				SequenceNumber: sequencer.NextSequenceNumber(),
				Timestamp:      p.timestamp,
				SSRC:           p.ssrc,
			},
			Payload: payload,
		}
	}

	if len(packets) != 0 && p.absSendTime != 0 {
		sendTime := extension.NewAbsSendTimeExtensionFromTime(p.timeProvider.Now())
		raw, err := sendTime.Marshal()
		if err != nil {
			return nil, fmt.Errorf("failed to marshal abs-send-time: %w", err)
		}
		if err := packets[len(packets)-1].SetExtension(p.absSendTime, raw); err != nil {
			logrus.WithFields(logrus.Fields{
				"function":     "Packetizer.Packetize",
				"extension_id": p.absSendTime,
				"error":        err.Error(),
			}).Error("Failed to attach abs-send-time")
			return nil, fmt.Errorf("failed to attach abs-send-time: %w", err)
		}
	}

	p.timestamp += samples

	logrus.WithFields(logrus.Fields{
		"function":      "Packetizer.Packetize",
		"packet_count":  len(packets),
		"new_timestamp": p.timestamp,
	}).Debug("Packetized payload")

	return packets, nil
}

// SkipSamples advances the running timestamp without emitting packets,
// e.g. across a period of silence.
func (p *Packetizer) SkipSamples(samples uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.timestamp += samples
}

// Timestamp returns the timestamp the next Packetize call will use.
func (p *Packetizer) Timestamp() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.timestamp
}

// ClockRate returns the configured media clock rate in Hz.
func (p *Packetizer) ClockRate() uint32 {
	return p.clockRate
}

// SSRC returns the synchronization source stamped on every packet.
func (p *Packetizer) SSRC() uint32 {
	return p.ssrc
}
