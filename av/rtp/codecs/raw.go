package codecs

import (
	"fmt"
	"io"
)

// RawPayloader splits an opaque byte stream into chunks of at most mtu
// bytes. It suits formats without codec specific fragmentation rules.
type RawPayloader struct{}

// Payload reads r to the end and fragments it. A non-positive mtu yields a
// single chunk.
func (p *RawPayloader) Payload(mtu int, r io.Reader) ([][]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	if mtu <= 0 {
		return [][]byte{data}, nil
	}

	chunks := make([][]byte, 0, (len(data)+mtu-1)/mtu)
	for len(data) > 0 {
		n := min(mtu, len(data))
		chunks = append(chunks, data[:n:n])
		data = data[n:]
	}
	return chunks, nil
}

// RawPacket is a pass-through depacketizer for RawPayloader streams.
type RawPacket struct {
	Payload []byte
}

// Depacketize stores and returns b.
func (p *RawPacket) Depacketize(b []byte) ([]byte, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrShortPacket)
	}
	p.Payload = b
	return b, nil
}
