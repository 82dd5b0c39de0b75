package rtp

import (
	"encoding/binary"
	"fmt"
)

// HeaderLength is the size of the fixed RTP header without CSRC ids or
// extensions.
const HeaderLength = 12

// Extension profiles selecting how the extension block is laid out.
// Any other profile value is carried as a single opaque RFC 3550 block.
const (
	ExtensionProfileOneByte = 0xBEDE
	ExtensionProfileTwoByte = 0x1000
)

const (
	versionShift   = 6
	versionMask    = 0x3
	paddingShift   = 5
	extensionShift = 4
	ccMask         = 0xF
	markerShift    = 7
	ptMask         = 0x7F

	seqNumOffset    = 2
	timestampOffset = 4
	ssrcOffset      = 8
	csrcOffset      = 12
	csrcLength      = 4

	extensionHeaderLength = 4
	maxCSRC               = 15
	// maxExtensionWords is the largest value of the 16-bit length field.
	maxExtensionWords     = 0xFFFF

	oneByteMaxID       = 14
	oneByteMaxPayload  = 16
	twoByteMaxPayload  = 255
	extensionIDPadding = 0x0
	extensionIDStop    = 0xF
)

// Extension is a single RTP header extension element.
type Extension struct {
	ID      uint8
	Payload []byte
}

// Header represents an RTP fixed header with its optional CSRC list and
// extension block.
//
//	 0                   1                   2                   3
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|V=2|P|X|  CC   |M|     PT      |       sequence number         |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|                           timestamp                           |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|           synchronization source (SSRC) identifier            |
//	+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+=+
//	|            contributing source (CSRC) identifiers             |
//	|                             ....                              |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//
// Version and PayloadType are masked to their field widths when marshaled.
type Header struct {
	Version          uint8
	Padding          bool
	Extension        bool
	Marker           bool
	PayloadType      uint8
	SequenceNumber   uint16
	Timestamp        uint32
	SSRC             uint32
	CSRC             []uint32
	ExtensionProfile uint16
	Extensions       []Extension
}

// Unmarshal parses buf into the header and returns the number of bytes
// consumed. Extension payloads are copied out of buf. On error the header
// is left unchanged.
func (h *Header) Unmarshal(buf []byte) (int, error) {
	if len(buf) < HeaderLength {
		return 0, fmt.Errorf("%w: %d < %d", ErrHeaderSizeInsufficient, len(buf), HeaderLength)
	}

	var out Header
	out.Version = buf[0] >> versionShift & versionMask
	out.Padding = buf[0]>>paddingShift&0x1 > 0
	out.Extension = buf[0]>>extensionShift&0x1 > 0
	nCSRC := int(buf[0] & ccMask)

	out.Marker = buf[1]>>markerShift&0x1 > 0
	out.PayloadType = buf[1] & ptMask

	out.SequenceNumber = binary.BigEndian.Uint16(buf[seqNumOffset:timestampOffset])
	out.Timestamp = binary.BigEndian.Uint32(buf[timestampOffset:ssrcOffset])
	out.SSRC = binary.BigEndian.Uint32(buf[ssrcOffset:csrcOffset])

	n := csrcOffset + nCSRC*csrcLength
	if len(buf) < n {
		return 0, fmt.Errorf("%w: %d < %d", ErrHeaderSizeInsufficient, len(buf), n)
	}
	if nCSRC > 0 {
		out.CSRC = make([]uint32, nCSRC)
		for i := range out.CSRC {
			offset := csrcOffset + i*csrcLength
			out.CSRC[i] = binary.BigEndian.Uint32(buf[offset:])
		}
	}

	if out.Extension {
		if len(buf) < n+extensionHeaderLength {
			return 0, fmt.Errorf("%w: %d < %d", ErrHeaderSizeInsufficientForExtension, len(buf), n+extensionHeaderLength)
		}
		out.ExtensionProfile = binary.BigEndian.Uint16(buf[n:])
		extLen := int(binary.BigEndian.Uint16(buf[n+2:])) * 4
		n += extensionHeaderLength

		if len(buf) < n+extLen {
			return 0, fmt.Errorf("%w: %d < %d", ErrHeaderSizeInsufficientForExtension, len(buf), n+extLen)
		}
		exts, err := unmarshalExtensions(out.ExtensionProfile, buf[n:n+extLen])
		if err != nil {
			return 0, err
		}
		out.Extensions = exts
		n += extLen
	}

	*h = out
	return n, nil
}

func unmarshalExtensions(profile uint16, region []byte) ([]Extension, error) {
	var exts []Extension

	switch profile {
	case ExtensionProfileOneByte:
		for i := 0; i < len(region); {
			if region[i] == extensionIDPadding {
				i++
				continue
			}
			id := region[i] >> 4
			length := int(region[i]&0xF) + 1
			i++
			// The reserved id ends the element list; what follows is padding.
			if id == extensionIDStop {
				break
			}
			if i+length > len(region) {
				return nil, fmt.Errorf("%w: one byte extension %d needs %d bytes, %d left", ErrTooSmall, id, length, len(region)-i)
			}
			exts = append(exts, Extension{ID: id, Payload: copyBytes(region[i : i+length])})
			i += length
		}

	case ExtensionProfileTwoByte:
		for i := 0; i < len(region); {
			if region[i] == extensionIDPadding {
				i++
				continue
			}
			id := region[i]
			i++
			if i >= len(region) {
				return nil, fmt.Errorf("%w: two byte extension %d has no length", ErrTooSmall, id)
			}
			length := int(region[i])
			i++
			if i+length > len(region) {
				return nil, fmt.Errorf("%w: two byte extension %d needs %d bytes, %d left", ErrTooSmall, id, length, len(region)-i)
			}
			exts = append(exts, Extension{ID: id, Payload: copyBytes(region[i : i+length])})
			i += length
		}

	default:
		if len(region) > 0 {
			exts = append(exts, Extension{ID: 0, Payload: copyBytes(region)})
		}
	}

	return exts, nil
}

// MarshalSize returns the number of bytes Marshal will produce.
func (h Header) MarshalSize() int {
	size := HeaderLength + len(h.CSRC)*csrcLength
	if h.Extension {
		size += extensionHeaderLength + padToWord(h.extensionPayloadLen())
	}
	return size
}

// extensionPayloadLen is the unpadded size of the encoded extension elements.
func (h Header) extensionPayloadLen() int {
	n := 0
	for _, ext := range h.Extensions {
		switch h.ExtensionProfile {
		case ExtensionProfileOneByte:
			n += 1 + len(ext.Payload)
		case ExtensionProfileTwoByte:
			n += 2 + len(ext.Payload)
		default:
			n += len(ext.Payload)
		}
	}
	return n
}

func padToWord(n int) int {
	return (n + 3) &^ 3
}

// Validate checks every field that cannot be represented on the wire.
// Marshal calls it before writing anything.
func (h Header) Validate() error {
	if len(h.CSRC) > maxCSRC {
		return fmt.Errorf("%w: %d > %d", ErrTooManyCSRC, len(h.CSRC), maxCSRC)
	}
	if !h.Extension {
		if len(h.Extensions) > 0 {
			return fmt.Errorf("%w: %d extensions set", ErrHeaderExtensionsNotEnabled, len(h.Extensions))
		}
		return nil
	}

	switch h.ExtensionProfile {
	case ExtensionProfileOneByte:
		for _, ext := range h.Extensions {
			if err := validateOneByte(ext.ID, len(ext.Payload)); err != nil {
				return err
			}
		}
	case ExtensionProfileTwoByte:
		for _, ext := range h.Extensions {
			if err := validateTwoByte(ext.ID, len(ext.Payload)); err != nil {
				return err
			}
		}
	default:
		if len(h.Extensions) > 1 {
			return fmt.Errorf("%w: got %d", ErrRFC3550ExtensionCount, len(h.Extensions))
		}
		for _, ext := range h.Extensions {
			if err := validateRFC3550(ext.ID, len(ext.Payload)); err != nil {
				return err
			}
		}
	}

	if words := padToWord(h.extensionPayloadLen()) / 4; words > maxExtensionWords {
		return fmt.Errorf("%w: %d words", ErrHeaderExtensionTooLarge, words)
	}
	return nil
}

func validateOneByte(id uint8, size int) error {
	if id < 1 || id > oneByteMaxID {
		return fmt.Errorf("%w: id %d", ErrRFC8285OneByteHeaderIDRange, id)
	}
	// The 4-bit length field stores size-1, so empty elements cannot be encoded.
	if size < 1 || size > oneByteMaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrRFC8285OneByteHeaderSize, size)
	}
	return nil
}

func validateTwoByte(id uint8, size int) error {
	if id < 1 {
		return fmt.Errorf("%w: id %d", ErrRFC8285TwoByteHeaderIDRange, id)
	}
	if size > twoByteMaxPayload {
		return fmt.Errorf("%w: %d bytes", ErrRFC8285TwoByteHeaderSize, size)
	}
	return nil
}

func validateRFC3550(id uint8, size int) error {
	if id != 0 {
		return fmt.Errorf("%w: id %d", ErrRFC3550HeaderIDRange, id)
	}
	if size%4 != 0 {
		return fmt.Errorf("%w: %d bytes", ErrHeaderExtensionPayloadNot32BitWords, size)
	}
	return nil
}

// Marshal serializes the header into a newly allocated buffer.
func (h Header) Marshal() ([]byte, error) {
	buf := make([]byte, h.MarshalSize())
	n, err := h.MarshalTo(buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// MarshalTo serializes the header into buf and returns the number of bytes
// written. Nothing is written when validation fails or buf is too short.
func (h Header) MarshalTo(buf []byte) (int, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}
	size := h.MarshalSize()
	if len(buf) < size {
		return 0, fmt.Errorf("%w: need %d bytes, have %d", ErrTooSmall, size, len(buf))
	}

	buf[0] = (h.Version&versionMask)<<versionShift | uint8(len(h.CSRC))
	if h.Padding {
		buf[0] |= 1 << paddingShift
	}
	if h.Extension {
		buf[0] |= 1 << extensionShift
	}

	buf[1] = h.PayloadType & ptMask
	if h.Marker {
		buf[1] |= 1 << markerShift
	}

	binary.BigEndian.PutUint16(buf[seqNumOffset:], h.SequenceNumber)
	binary.BigEndian.PutUint32(buf[timestampOffset:], h.Timestamp)
	binary.BigEndian.PutUint32(buf[ssrcOffset:], h.SSRC)

	n := csrcOffset
	for _, csrc := range h.CSRC {
		binary.BigEndian.PutUint32(buf[n:], csrc)
		n += csrcLength
	}

	if h.Extension {
		padded := padToWord(h.extensionPayloadLen())
		binary.BigEndian.PutUint16(buf[n:], h.ExtensionProfile)
		binary.BigEndian.PutUint16(buf[n+2:], uint16(padded/4))
		n += extensionHeaderLength

		end := n + padded
		for _, ext := range h.Extensions {
			switch h.ExtensionProfile {
			case ExtensionProfileOneByte:
				buf[n] = ext.ID<<4 | uint8(len(ext.Payload)-1)
				n++
			case ExtensionProfileTwoByte:
				buf[n] = ext.ID
				buf[n+1] = uint8(len(ext.Payload))
				n += 2
			}
			n += copy(buf[n:], ext.Payload)
		}
		for ; n < end; n++ {
			buf[n] = 0
		}
	}

	return n, nil
}

// SetExtension sets an extension payload, replacing any element with the
// same id. On a header without extensions it enables them and picks the
// one-byte profile when id and payload fit it, the two-byte profile
// otherwise. The payload is copied.
func (h *Header) SetExtension(id uint8, payload []byte) error {
	if !h.Extension {
		var profile uint16
		switch {
		case validateOneByte(id, len(payload)) == nil:
			profile = ExtensionProfileOneByte
		default:
			if err := validateTwoByte(id, len(payload)); err != nil {
				return err
			}
			profile = ExtensionProfileTwoByte
		}
		h.Extension = true
		h.ExtensionProfile = profile
		h.Extensions = append(h.Extensions[:0], Extension{ID: id, Payload: copyBytes(payload)})
		return nil
	}

	var err error
	switch h.ExtensionProfile {
	case ExtensionProfileOneByte:
		err = validateOneByte(id, len(payload))
	case ExtensionProfileTwoByte:
		err = validateTwoByte(id, len(payload))
	default:
		err = validateRFC3550(id, len(payload))
	}
	if err != nil {
		return err
	}

	for i := range h.Extensions {
		if h.Extensions[i].ID == id {
			h.Extensions[i].Payload = copyBytes(payload)
			return nil
		}
	}
	h.Extensions = append(h.Extensions, Extension{ID: id, Payload: copyBytes(payload)})
	return nil
}

// GetExtension returns the payload of the extension with the given id.
// The returned slice is owned by the header.
func (h *Header) GetExtension(id uint8) ([]byte, error) {
	if !h.Extension {
		return nil, ErrHeaderExtensionsNotEnabled
	}
	for _, ext := range h.Extensions {
		if ext.ID == id {
			return ext.Payload, nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrHeaderExtensionNotFound, id)
}

// GetExtensionIDs returns the ids of all extensions in order, or nil when
// extensions are disabled.
func (h *Header) GetExtensionIDs() []uint8 {
	if !h.Extension || len(h.Extensions) == 0 {
		return nil
	}
	ids := make([]uint8, 0, len(h.Extensions))
	for _, ext := range h.Extensions {
		ids = append(ids, ext.ID)
	}
	return ids
}

// DelExtension removes the extension with the given id.
func (h *Header) DelExtension(id uint8) error {
	if !h.Extension {
		return ErrHeaderExtensionsNotEnabled
	}
	for i, ext := range h.Extensions {
		if ext.ID == id {
			h.Extensions = append(h.Extensions[:i], h.Extensions[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: id %d", ErrHeaderExtensionNotFound, id)
}

// Clone returns a deep copy of the header.
func (h Header) Clone() Header {
	clone := h
	if h.CSRC != nil {
		clone.CSRC = make([]uint32, len(h.CSRC))
		copy(clone.CSRC, h.CSRC)
	}
	if h.Extensions != nil {
		clone.Extensions = make([]Extension, len(h.Extensions))
		for i, ext := range h.Extensions {
			clone.Extensions[i] = Extension{ID: ext.ID, Payload: copyBytes(ext.Payload)}
		}
	}
	return clone
}

// copyBytes returns an independent copy of b, nil for empty input.
func copyBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
