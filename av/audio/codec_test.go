package audio

import (
	"testing"
	"time"

	"github.com/opd-ai/toxrtp/av/rtp"
	"github.com/opd-ai/toxrtp/av/rtp/codecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpusCodec(t *testing.T) {
	codec := NewOpusCodec()
	require.NotNil(t, codec)

	var _ rtp.Depacketizer = codec
}

func TestOpusCodec_Depacketize(t *testing.T) {
	codec := NewOpusCodec()

	_, err := codec.Depacketize(nil)
	assert.ErrorIs(t, err, codecs.ErrShortPacket)

	payload, err := codec.Depacketize([]byte{0x48, 0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x48, 0x01, 0x02}, payload)
}

func TestOpusCodec_DecodeFrameEmpty(t *testing.T) {
	codec := NewOpusCodec()

	pcm, rate, err := codec.DecodeFrame(nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "empty audio data")
	assert.Nil(t, pcm)
	assert.Zero(t, rate)
}

func TestSamplesPerFrame(t *testing.T) {
	tests := []struct {
		duration    time.Duration
		expected    uint32
		expectError bool
	}{
		{duration: 2500 * time.Microsecond, expected: 120},
		{duration: 5 * time.Millisecond, expected: 240},
		{duration: 10 * time.Millisecond, expected: 480},
		{duration: 20 * time.Millisecond, expected: 960},
		{duration: 40 * time.Millisecond, expected: 1920},
		{duration: 60 * time.Millisecond, expected: 2880},
		{duration: 15 * time.Millisecond, expectError: true},
		{duration: 0, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.duration.String(), func(t *testing.T) {
			samples, err := SamplesPerFrame(tt.duration)
			if tt.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "invalid Opus frame duration")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, samples)
		})
	}
}

// The receive path hands an Opus RTP payload to the codec unchanged.
func TestOpusCodec_WithReceiver(t *testing.T) {
	codec := NewOpusCodec()
	receiver, err := rtp.NewReceiver(codec)
	require.NoError(t, err)

	packet := rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    codecs.DefaultOpusPayloadType,
			SequenceNumber: 42,
			Timestamp:      960,
			SSRC:           0x01020304,
		},
		Payload: []byte{0x48, 0xaa, 0xbb},
	}
	raw, err := packet.Marshal()
	require.NoError(t, err)

	media, decoded, err := receiver.ProcessPacket(raw)
	require.NoError(t, err)
	assert.Equal(t, packet.Payload, media)
	assert.Equal(t, uint32(960), decoded.Timestamp)
}
