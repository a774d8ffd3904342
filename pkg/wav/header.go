// Package wav implements the canonical 44-byte PCM WAV container header.
package wav

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

const (
	HeaderSize = 44

	// fmt sub-chunk size for plain PCM
	fmtChunkSize = 16
	// RIFF chunk size minus the data payload: "WAVE" + fmt sub-chunk + data sub-chunk header
	riffOverhead = 4 + (8 + fmtChunkSize) + 8

	AudioFormatPCM = 1

	// MaxDataSize is the largest payload whose RIFF chunk size fits 32 bits.
	MaxDataSize = math.MaxUint32 - riffOverhead
)

// Field offsets.
const (
	offsetRIFF          = 0
	offsetChunkSize     = 4
	offsetWAVE          = 8
	offsetFmt           = 12
	offsetFmtSize       = 16
	offsetAudioFormat   = 20
	offsetChannels      = 22
	offsetSampleRate    = 24
	offsetByteRate      = 28
	offsetBlockAlign    = 32
	offsetBitsPerSample = 34
	offsetData          = 36
	offsetDataSize      = 40
)

// Header is the little-endian on-disk header.
type Header [HeaderSize]byte

// BuildHeader computes the header of a file whose payload will be exactly
// totalBytes long. It has no side effects.
func BuildHeader(
	totalBytes uint32,
	bitsPerSample uint16,
	sampleRate uint32,
	channels uint16,
) Header {
	blockAlign := channels * (bitsPerSample / 8)
	byteRate := sampleRate * uint32(blockAlign)

	var h Header
	copy(h[offsetRIFF:], "RIFF")
	binary.LittleEndian.PutUint32(h[offsetChunkSize:], riffOverhead+totalBytes)
	copy(h[offsetWAVE:], "WAVE")
	copy(h[offsetFmt:], "fmt ")
	binary.LittleEndian.PutUint32(h[offsetFmtSize:], fmtChunkSize)
	binary.LittleEndian.PutUint16(h[offsetAudioFormat:], AudioFormatPCM)
	binary.LittleEndian.PutUint16(h[offsetChannels:], channels)
	binary.LittleEndian.PutUint32(h[offsetSampleRate:], sampleRate)
	binary.LittleEndian.PutUint32(h[offsetByteRate:], byteRate)
	binary.LittleEndian.PutUint16(h[offsetBlockAlign:], blockAlign)
	binary.LittleEndian.PutUint16(h[offsetBitsPerSample:], bitsPerSample)
	copy(h[offsetData:], "data")
	binary.LittleEndian.PutUint32(h[offsetDataSize:], totalBytes)
	return h
}

// HeaderFor is BuildHeader for stream parameters, with range checks.
func HeaderFor(params types.StreamParams, totalBytes uint64) (Header, error) {
	if err := params.Validate(); err != nil {
		return Header{}, fmt.Errorf("invalid stream parameters: %w", err)
	}
	if totalBytes > MaxDataSize {
		return Header{}, fmt.Errorf("payload of %d bytes does not fit a WAV file (max %d)", totalBytes, uint64(MaxDataSize))
	}
	if params.Channels > math.MaxUint16 {
		return Header{}, fmt.Errorf("too many channels: %d", params.Channels)
	}
	return BuildHeader(
		uint32(totalBytes),
		params.BitsPerSample(),
		uint32(params.SampleRate),
		uint16(params.Channels),
	), nil
}

func (h Header) Bytes() []byte {
	return h[:]
}

func (h Header) ChunkSize() uint32 {
	return binary.LittleEndian.Uint32(h[offsetChunkSize:])
}

func (h Header) AudioFormat() uint16 {
	return binary.LittleEndian.Uint16(h[offsetAudioFormat:])
}

func (h Header) Channels() uint16 {
	return binary.LittleEndian.Uint16(h[offsetChannels:])
}

func (h Header) SampleRate() uint32 {
	return binary.LittleEndian.Uint32(h[offsetSampleRate:])
}

func (h Header) ByteRate() uint32 {
	return binary.LittleEndian.Uint32(h[offsetByteRate:])
}

func (h Header) BlockAlign() uint16 {
	return binary.LittleEndian.Uint16(h[offsetBlockAlign:])
}

func (h Header) BitsPerSample() uint16 {
	return binary.LittleEndian.Uint16(h[offsetBitsPerSample:])
}

func (h Header) DataSize() uint32 {
	return binary.LittleEndian.Uint32(h[offsetDataSize:])
}
