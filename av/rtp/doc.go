// Package rtp implements the RTP (RFC 3550) packet format and the pipeline
// that turns media payloads into RTP packets.
//
// The package performs no network I/O. It converts between Go values and
// wire bytes, numbers packets, and fragments payloads; moving datagrams is
// left to the caller.
//
// # Architecture Overview
//
// The package consists of several key components:
//
//   - Header: Bit-exact codec for the fixed header, CSRC list and the
//     RFC 3550 / RFC 8285 one-byte / RFC 8285 two-byte extension block
//   - Packet: A Header plus an opaque payload
//   - Sequencer: Concurrency-safe 16-bit sequence numbers with rollover count
//   - Packetizer: Fragments a payload through a Payloader and stamps headers
//   - Stream / Receiver: Send and receive side of a single RTP stream
//
// # Packetization
//
// A Packetizer asks a Payloader for MTU-sized chunks and wraps each one:
//
//	packetizer, err := rtp.NewPacketizer(rtp.DefaultMTU, 111, rtp.NewRandomSSRC(), 48000, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	packetizer.EnableAbsSendTime(1)
//	packets, err := packetizer.Packetize(bytes.NewReader(frame), &codecs.OpusPayloader{}, rtp.NewRandomSequencer(), 960)
//
// Every packet from one call shares the timestamp, only the last carries
// the marker bit, and the running timestamp advances by the sample count.
// When abs-send-time is enabled the last packet also carries the send time
// extension; its bytes are not budgeted against the MTU.
//
// # Header Extensions
//
// Extensions are kept as an ordered list of id/payload pairs. The
// ExtensionProfile selects the wire layout:
//
//   - 0xBEDE (ExtensionProfileOneByte): ids 1-14, payloads 1-16 bytes
//   - 0x1000 (ExtensionProfileTwoByte): ids 1-255, payloads 0-255 bytes
//   - anything else: one opaque block with id 0, a multiple of 4 bytes
//
// Marshal validates the whole header before writing a byte. Unmarshal
// copies payload and extension bytes, so receive buffers can be reused.
//
// # Deterministic Testing
//
// The send time used for abs-send-time comes from an injectable provider:
//
//	type MockTimeProvider struct {
//	    currentTime time.Time
//	}
//	func (m *MockTimeProvider) Now() time.Time { return m.currentTime }
//
//	packetizer, _ := rtp.NewPacketizerWithTimeProvider(mtu, pt, ssrc, clockRate, 0, &MockTimeProvider{})
//
// # Thread Safety
//
// WrappingSequencer is lock-free and safe for concurrent use; numbers are
// handed out in the order the atomic increments complete. Packetizer,
// Stream and Receiver serialize their own calls with a mutex. Header and
// Packet values are not synchronized.
package rtp
