// Package audio decodes Opus media carried in RTP payloads.
//
// OpusCodec implements the rtp.Depacketizer interface, so it can be handed
// straight to an rtp.Receiver; DecodeFrame then turns the depacketized
// payload into PCM using the pure Go pion/opus decoder.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/opd-ai/toxrtp/av/rtp/codecs"
	"github.com/pion/opus"
	"github.com/sirupsen/logrus"
)

// decodeBufferSize holds 40ms of 48kHz int16 samples.
const decodeBufferSize = 1920 * 2

// validFrameDurations are the frame durations Opus allows (RFC 6716).
var validFrameDurations = []time.Duration{
	2500 * time.Microsecond,
	5 * time.Millisecond,
	10 * time.Millisecond,
	20 * time.Millisecond,
	40 * time.Millisecond,
	60 * time.Millisecond,
}

// OpusCodec depacketizes and decodes Opus RTP payloads.
type OpusCodec struct {
	mu      sync.Mutex
	packet  codecs.OpusPacket
	decoder opus.Decoder
}

// NewOpusCodec creates a new Opus codec instance.
func NewOpusCodec() *OpusCodec {
	logrus.WithFields(logrus.Fields{
		"function": "NewOpusCodec",
	}).Info("Creating new Opus codec instance")

	return &OpusCodec{
		decoder: opus.NewDecoder(),
	}
}

// Depacketize strips RTP framing from an Opus payload, which for Opus is
// the identity.
func (c *OpusCodec) Depacketize(payload []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.packet.Depacketize(payload)
}

// DecodeFrame decodes one Opus packet to PCM.
//
// Parameters:
//   - data: Opus packet as returned by Depacketize
//
// Returns:
//   - []int16: Decoded PCM samples, interleaved when stereo
//   - uint32: Sample rate of the decoded bandwidth in Hz
//   - error: Any error that occurred during decoding
func (c *OpusCodec) DecodeFrame(data []byte) ([]int16, uint32, error) {
	logrus.WithFields(logrus.Fields{
		"function":  "OpusCodec.DecodeFrame",
		"data_size": len(data),
	}).Debug("Decoding Opus audio frame to PCM")

	if len(data) == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "OpusCodec.DecodeFrame",
			"error":    "empty audio data",
		}).Error("Audio data validation failed")
		return nil, 0, fmt.Errorf("empty audio data")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	output := make([]byte, decodeBufferSize)
	bandwidth, isStereo, err := c.decoder.Decode(data, output)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "OpusCodec.DecodeFrame",
			"error":    err.Error(),
		}).Error("Opus decode failed")
		return nil, 0, fmt.Errorf("opus decode failed: %w", err)
	}

	pcm := make([]int16, len(output)/2)
	for i := range pcm {
		pcm[i] = int16(output[i*2]) | int16(output[i*2+1])<<8
	}

	logrus.WithFields(logrus.Fields{
		"function":    "OpusCodec.DecodeFrame",
		"pcm_samples": len(pcm),
		"bandwidth":   bandwidth.String(),
		"is_stereo":   isStereo,
	}).Debug("Opus decode completed successfully")

	return pcm, uint32(bandwidth.SampleRate()), nil
}

// SamplesPerFrame returns the RTP timestamp increment for one Opus frame
// of the given duration at the 48kHz Opus clock rate.
func SamplesPerFrame(frameDuration time.Duration) (uint32, error) {
	for _, d := range validFrameDurations {
		if frameDuration == d {
			return uint32(frameDuration * codecs.DefaultOpusClockRate / time.Second), nil
		}
	}

	logrus.WithFields(logrus.Fields{
		"function":       "SamplesPerFrame",
		"frame_duration": frameDuration.String(),
		"error":          "invalid frame duration",
	}).Error("Frame duration validation failed")

	return 0, fmt.Errorf("invalid Opus frame duration %s - must be 2.5, 5, 10, 20, 40, or 60 ms", frameDuration)
}
