// Package codecs implements RTP payloaders and depacketizers for specific
// media formats.
package codecs

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// DefaultOpusClockRate is the RTP clock rate of Opus streams (RFC 7587).
const DefaultOpusClockRate = 48000

// DefaultOpusPayloadType is the dynamic payload type commonly negotiated
// for Opus.
const DefaultOpusPayloadType = 111

// OpusPayloader payloads Opus packets.
//
// An Opus packet is never fragmented: the whole input becomes one chunk
// regardless of mtu.
type OpusPayloader struct{}

// Payload reads one Opus packet from r.
func (p *OpusPayloader) Payload(mtu int, r io.Reader) ([][]byte, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read opus payload: %w", err)
	}
	if len(payload) == 0 {
		return nil, nil
	}

	if mtu > 0 && len(payload) > mtu {
		logrus.WithFields(logrus.Fields{
			"function":     "OpusPayloader.Payload",
			"payload_size": len(payload),
			"mtu":          mtu,
		}).Warn("Opus packet exceeds MTU")
	}

	return [][]byte{payload}, nil
}

// OpusPacket depacketizes Opus RTP payloads. Opus carries no RTP specific
// framing, so the payload is passed through unchanged.
type OpusPacket struct {
	Payload []byte
}

// Depacketize stores and returns b.
func (p *OpusPacket) Depacketize(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty opus payload", ErrShortPacket)
	}
	p.Payload = b
	return b, nil
}
