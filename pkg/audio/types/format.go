package types

import (
	"fmt"
	"math"
)

type SampleRate uint32

type Channel uint32

type PCMFormat uint

const (
	PCMFormatUndefined = PCMFormat(iota)
	PCMFormatU8
	PCMFormatS16LE
	PCMFormatS24LE
	PCMFormatS32LE
	EndOfPCMFormat
)

func (f PCMFormat) String() string {
	switch f {
	case PCMFormatUndefined:
		return "<undefined>"
	case PCMFormatU8:
		return "u8"
	case PCMFormatS16LE:
		return "s16le"
	case PCMFormatS24LE:
		return "s24le"
	case PCMFormatS32LE:
		return "s32le"
	default:
		return fmt.Sprintf("<unexpected_format_%d>", uint(f))
	}
}

// Size returns the size of one sample of one channel, in bytes.
func (f PCMFormat) Size() uint {
	switch f {
	case PCMFormatU8:
		return 1
	case PCMFormatS16LE:
		return 2
	case PCMFormatS24LE:
		return 3
	case PCMFormatS32LE:
		return 4
	default:
		return 0
	}
}

func (f PCMFormat) BitsPerSample() uint16 {
	return uint16(f.Size() * 8)
}

// PCMFormatFromBits returns the integer PCM format WAV uses for the given bit depth
// (8-bit WAV samples are unsigned, wider ones are signed little-endian).
func PCMFormatFromBits(bitsPerSample uint16) (PCMFormat, error) {
	switch bitsPerSample {
	case 8:
		return PCMFormatU8, nil
	case 16:
		return PCMFormatS16LE, nil
	case 24:
		return PCMFormatS24LE, nil
	case 32:
		return PCMFormatS32LE, nil
	default:
		return PCMFormatUndefined, fmt.Errorf("unsupported bits per sample: %d", bitsPerSample)
	}
}

// StreamParams are fixed for the whole lifetime of a recording session.
type StreamParams struct {
	SampleRate SampleRate
	Channels   Channel
	Format     PCMFormat
}

func (p StreamParams) BitsPerSample() uint16 {
	return p.Format.BitsPerSample()
}

const (
	// MaxBlockAlign and MaxByteRate are the widths of the WAV fmt fields.
	MaxBlockAlign = math.MaxUint16
	MaxByteRate   = math.MaxUint32
)

// BlockAlign is the size of one multi-channel frame, in bytes.
func (p StreamParams) BlockAlign() uint64 {
	return uint64(p.Channels) * uint64(p.Format.Size())
}

// ByteRate is the amount of payload bytes produced per second of audio.
func (p StreamParams) ByteRate() uint64 {
	return uint64(p.SampleRate) * p.BlockAlign()
}

// TotalBytes returns the payload size of a recording of the given duration.
func (p StreamParams) TotalBytes(durationSeconds uint32) uint64 {
	return p.ByteRate() * uint64(durationSeconds)
}

func (p StreamParams) Validate() error {
	if p.SampleRate == 0 {
		return fmt.Errorf("sample rate is zero")
	}
	if p.Channels == 0 {
		return fmt.Errorf("channel count is zero")
	}
	if p.Format.Size() == 0 {
		return fmt.Errorf("invalid PCM format: %s", p.Format)
	}
	if blockAlign := p.BlockAlign(); blockAlign > MaxBlockAlign {
		return fmt.Errorf("a frame of %d channels of %s is %d bytes, more than %d", p.Channels, p.Format, blockAlign, MaxBlockAlign)
	}
	if byteRate := p.ByteRate(); byteRate > MaxByteRate {
		return fmt.Errorf("byte rate %d at %dHz is more than %d", byteRate, p.SampleRate, uint64(MaxByteRate))
	}
	return nil
}

func (p StreamParams) String() string {
	return fmt.Sprintf("%dHz/%s/%dch", p.SampleRate, p.Format, p.Channels)
}
