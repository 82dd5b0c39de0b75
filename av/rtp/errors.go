package rtp

import "errors"

// Sentinel errors for rtp package operations.
// These errors enable reliable error classification using errors.Is().

// Size errors. The buffer ended before a fixed or declared-length field.
var (
	// ErrHeaderSizeInsufficient indicates the buffer is shorter than the
	// fixed header plus the declared CSRC list.
	ErrHeaderSizeInsufficient = errors.New("RTP header size insufficient")

	// ErrHeaderSizeInsufficientForExtension indicates the buffer is shorter
	// than the declared header extension block.
	ErrHeaderSizeInsufficientForExtension = errors.New("RTP header size insufficient for extension")

	// ErrTooSmall indicates a buffer too small for the data being read or written.
	ErrTooSmall = errors.New("buffer too small")
)

// State errors.
var (
	// ErrHeaderExtensionsNotEnabled indicates an extension accessor was
	// called on a header whose extension bit is not set.
	ErrHeaderExtensionsNotEnabled = errors.New("h.Extension not enabled")

	// ErrHeaderExtensionNotFound indicates no extension with the requested id.
	ErrHeaderExtensionNotFound = errors.New("extension not found")
)

// Validation errors for caller-supplied header values.
var (
	ErrRFC8285OneByteHeaderIDRange = errors.New("header extension id must be between 1 and 14 for RFC 8285 one byte extensions")
	ErrRFC8285OneByteHeaderSize    = errors.New("header extension payload must be between 1 and 16 bytes for RFC 8285 one byte extensions")
	ErrRFC8285TwoByteHeaderIDRange = errors.New("header extension id must be between 1 and 255 for RFC 8285 two byte extensions")
	ErrRFC8285TwoByteHeaderSize    = errors.New("header extension payload must be 255 bytes or less for RFC 8285 two byte extensions")
	ErrRFC3550HeaderIDRange        = errors.New("header extension id must be 0 for non-RFC 8285 extensions")

	// ErrRFC3550ExtensionCount indicates more than one extension entry
	// under a profile that carries a single opaque block.
	ErrRFC3550ExtensionCount = errors.New("non-RFC 8285 extension profile carries exactly one extension")

	// ErrHeaderExtensionPayloadNot32BitWords indicates a non-RFC 8285
	// extension payload whose length is not a multiple of 4.
	ErrHeaderExtensionPayloadNot32BitWords = errors.New("extension payload must be in 32-bit words")

	// ErrHeaderExtensionTooLarge indicates an extension block longer than
	// its 16-bit word count can describe.
	ErrHeaderExtensionTooLarge = errors.New("header extension block exceeds 65535 words")

	// ErrTooManyCSRC indicates a CSRC list that does not fit the 4-bit count.
	ErrTooManyCSRC = errors.New("too many CSRC identifiers")
)

// Receive side errors.
var (
	// ErrUnexpectedSSRC indicates a packet from a source other than the one
	// the receiver locked onto.
	ErrUnexpectedSSRC = errors.New("unexpected SSRC")
)
