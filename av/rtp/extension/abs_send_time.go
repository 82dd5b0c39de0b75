// Package extension implements RTP header extension payload formats.
package extension

import (
	"fmt"
	"time"
)

// AbsSendTimeURI identifies the abs-send-time extension in SDP extmap lines.
const AbsSendTimeURI = "http://www.webrtc.org/experiments/rtp-hdrext/abs-send-time"

const (
	absSendTimeExtensionSize = 3

	// ntpEpochOffset is the number of seconds between 1900-01-01 and 1970-01-01.
	ntpEpochOffset = 0x83AA7E80

	absSendTimeShift = 14
	absSendTimeMask  = 0xFFFFFF
	// highBitsMask keeps the NTP bits above the 24-bit abs-send-time window.
	highBitsMask = 0xFFFFFFC000000000
	// wrapPeriod is one full abs-send-time cycle (64s) in NTP units.
	wrapPeriod = uint64(0x1000000) << absSendTimeShift
)

// AbsSendTimeExtension is the abs-send-time header extension payload: the
// 24 bits of a 6.18 fixed point NTP time, wrapping every 64 seconds.
//
//	 0                   1                   2
//	 0 1 2 3 4 5 6 7 8 9 0 1 2 3 4 5 6 7 8 9 0 1 2 3
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
//	|             absolute send time                |
//	+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+-+
type AbsSendTimeExtension struct {
	// Timestamp holds the 24-bit wire value.
	Timestamp uint64
}

// NewAbsSendTimeExtension makes an extension from a send time expressed as
// the duration since the Unix epoch.
func NewAbsSendTimeExtension(sendTime time.Duration) *AbsSendTimeExtension {
	return &AbsSendTimeExtension{
		Timestamp: (Unix2NTP(sendTime) >> absSendTimeShift) & absSendTimeMask,
	}
}

// NewAbsSendTimeExtensionFromTime makes an extension from a wall clock time.
func NewAbsSendTimeExtensionFromTime(sendTime time.Time) *AbsSendTimeExtension {
	return NewAbsSendTimeExtension(time.Duration(sendTime.UnixNano()))
}

// MarshalSize returns the size of the extension once marshaled.
func (e AbsSendTimeExtension) MarshalSize() int {
	return absSendTimeExtensionSize
}

// Marshal serializes the extension into a new 3-byte buffer.
func (e AbsSendTimeExtension) Marshal() ([]byte, error) {
	buf := make([]byte, absSendTimeExtensionSize)
	if _, err := e.MarshalTo(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// MarshalTo writes the 24-bit timestamp big-endian into buf.
func (e AbsSendTimeExtension) MarshalTo(buf []byte) (int, error) {
	if len(buf) < absSendTimeExtensionSize {
		return 0, fmt.Errorf("%w: %d < %d", ErrTooSmall, len(buf), absSendTimeExtensionSize)
	}
	buf[0] = byte(e.Timestamp >> 16)
	buf[1] = byte(e.Timestamp >> 8)
	buf[2] = byte(e.Timestamp)
	return absSendTimeExtensionSize, nil
}

// Unmarshal parses the first three bytes of raw.
func (e *AbsSendTimeExtension) Unmarshal(raw []byte) error {
	if len(raw) < absSendTimeExtensionSize {
		return fmt.Errorf("%w: %d < %d", ErrTooSmall, len(raw), absSendTimeExtensionSize)
	}
	e.Timestamp = uint64(raw[0])<<16 | uint64(raw[1])<<8 | uint64(raw[2])
	return nil
}

// Estimate reconstructs the absolute send time from the receive time.
// The result is wrong when the transmission delay exceeds 64 seconds.
func (e AbsSendTimeExtension) Estimate(receive time.Duration) time.Duration {
	receiveNTP := Unix2NTP(receive)
	ntp := receiveNTP&highBitsMask | (e.Timestamp&absSendTimeMask)<<absSendTimeShift
	if receiveNTP < ntp {
		// A packet cannot arrive before it was sent, so it belongs to the
		// previous 64s cycle.
		ntp -= wrapPeriod
	}
	return NTP2Unix(ntp)
}

// EstimateTime is Estimate for wall clock times.
func (e AbsSendTimeExtension) EstimateTime(receive time.Time) time.Time {
	return time.Unix(0, int64(e.Estimate(time.Duration(receive.UnixNano()))))
}

// Unix2NTP converts a duration since the Unix epoch to 32.32 fixed point
// NTP time.
func Unix2NTP(t time.Duration) uint64 {
	u := uint64(t.Nanoseconds())
	s := u/uint64(time.Second) + ntpEpochOffset
	f := u % uint64(time.Second)
	f <<= 32
	f /= uint64(time.Second)
	return s<<32 | f
}

// NTP2Unix converts 32.32 fixed point NTP time to a duration since the
// Unix epoch.
func NTP2Unix(t uint64) time.Duration {
	s := t >> 32
	f := t & 0xFFFFFFFF
	f *= uint64(time.Second)
	f >>= 32
	s -= ntpEpochOffset
	return time.Duration(s*uint64(time.Second) + f)
}
