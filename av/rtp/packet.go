package rtp

import (
	"fmt"
	"strings"
)

// Packet is an RTP header followed by an opaque payload.
//
// The payload length is implicit: every byte after the header belongs to
// it. Packets produced by Unmarshal own their payload; the source buffer
// may be reused once Unmarshal returns.
type Packet struct {
	Header
	Payload []byte
}

// Unmarshal parses buf into the packet.
//
// Parameters:
//   - buf: A complete RTP datagram
//
// Returns:
//   - error: Any header error; the payload itself is never checked
func (p *Packet) Unmarshal(buf []byte) error {
	var h Header
	n, err := h.Unmarshal(buf)
	if err != nil {
		return err
	}
	p.Header = h
	p.Payload = copyBytes(buf[n:])
	return nil
}

// MarshalSize returns the size of the packet once marshaled.
func (p Packet) MarshalSize() int {
	return p.Header.MarshalSize() + len(p.Payload)
}

// Marshal serializes the packet into a newly allocated buffer.
func (p Packet) Marshal() ([]byte, error) {
	buf := make([]byte, p.MarshalSize())
	n, err := p.MarshalTo(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// MarshalTo serializes the packet into buf and returns the bytes written.
func (p Packet) MarshalTo(buf []byte) (int, error) {
	if size := p.MarshalSize(); len(buf) < size {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrTooSmall, size, len(buf))
	}
	n, err := p.Header.MarshalTo(buf)
	if err != nil {
		return 0, err
	}
	return n + copy(buf[n:], p.Payload), nil
}

// Clone returns a deep copy of the packet.
func (p Packet) Clone() Packet {
	return Packet{
		Header:  p.Header.Clone(),
		Payload: copyBytes(p.Payload),
	}
}

func (p Packet) String() string {
	var b strings.Builder
	b.WriteString("RTP PACKET:\n")
	fmt.Fprintf(&b, "\tVersion: %d\n", p.Version)
	fmt.Fprintf(&b, "\tMarker: %t\n", p.Marker)
	fmt.Fprintf(&b, "\tPayload Type: %d\n", p.PayloadType)
	fmt.Fprintf(&b, "\tSequence Number: %d\n", p.SequenceNumber)
	fmt.Fprintf(&b, "\tTimestamp: %d\n", p.Timestamp)
	fmt.Fprintf(&b, "\tSSRC: %d (%x)\n", p.SSRC, p.SSRC)
	fmt.Fprintf(&b, "\tPayload Length: %d\n", len(p.Payload))
	return b.String()
}
