package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

// Info is the content of a parsed header.
type Info struct {
	ChunkSize     uint32
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

func (info Info) StreamParams() (types.StreamParams, error) {
	format, err := types.PCMFormatFromBits(info.BitsPerSample)
	if err != nil {
		return types.StreamParams{}, err
	}
	return types.StreamParams{
		SampleRate: types.SampleRate(info.SampleRate),
		Channels:   types.Channel(info.Channels),
		Format:     format,
	}, nil
}

// ParseHeader reads exactly HeaderSize bytes and validates them as a
// canonical PCM header.
func ParseHeader(r io.Reader) (Info, error) {
	var h Header
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return Info{}, fmt.Errorf("unable to read the header: %w", err)
	}

	for _, magic := range []struct {
		offset int
		value  string
	}{
		{offsetRIFF, "RIFF"},
		{offsetWAVE, "WAVE"},
		{offsetFmt, "fmt "},
		{offsetData, "data"},
	} {
		if got := h[magic.offset : magic.offset+4]; !bytes.Equal(got, []byte(magic.value)) {
			return Info{}, fmt.Errorf("expected %q at offset %d, got %q", magic.value, magic.offset, got)
		}
	}
	if fmtSize := binary.LittleEndian.Uint32(h[offsetFmtSize:]); fmtSize != fmtChunkSize {
		return Info{}, fmt.Errorf("unsupported fmt chunk size %d", fmtSize)
	}

	info := Info{
		ChunkSize:     h.ChunkSize(),
		AudioFormat:   h.AudioFormat(),
		Channels:      h.Channels(),
		SampleRate:    h.SampleRate(),
		ByteRate:      h.ByteRate(),
		BlockAlign:    h.BlockAlign(),
		BitsPerSample: h.BitsPerSample(),
		DataSize:      h.DataSize(),
	}
	if info.AudioFormat != AudioFormatPCM {
		return info, fmt.Errorf("unsupported audio format %d", info.AudioFormat)
	}
	if info.BitsPerSample == 0 || info.BitsPerSample%8 != 0 {
		return info, fmt.Errorf("unsupported bits per sample %d", info.BitsPerSample)
	}
	if info.Channels == 0 {
		return info, fmt.Errorf("channel count is zero")
	}
	if info.SampleRate == 0 {
		return info, fmt.Errorf("sample rate is zero")
	}
	if expected := uint32(info.Channels) * uint32(info.BitsPerSample) / 8; uint32(info.BlockAlign) != expected {
		return info, fmt.Errorf("block align %d does not match %d channels of %d bits", info.BlockAlign, info.Channels, info.BitsPerSample)
	}
	if expected := info.SampleRate * uint32(info.BlockAlign); info.ByteRate != expected {
		return info, fmt.Errorf("byte rate %d does not match %d*%d", info.ByteRate, info.SampleRate, info.BlockAlign)
	}
	if info.ChunkSize != riffOverhead+info.DataSize {
		return info, fmt.Errorf("chunk size %d does not match data size %d", info.ChunkSize, info.DataSize)
	}
	return info, nil
}

// FileInfo describes a WAV file on disk.
type FileInfo struct {
	Info
	Path         string
	PayloadBytes uint64
}

// Consistent reports if the declared data size equals the payload actually
// present after the header; it is false for aborted recordings with a
// pre-declared header.
func (fi FileInfo) Consistent() bool {
	return uint64(fi.DataSize) == fi.PayloadBytes
}

// Duration of the payload actually present, in seconds.
func (fi FileInfo) PayloadSeconds() float64 {
	if fi.ByteRate == 0 {
		return 0
	}
	return float64(fi.PayloadBytes) / float64(fi.ByteRate)
}

func Inspect(path string) (FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("unable to open %q: %w", path, err)
	}
	defer f.Close()

	info, err := ParseHeader(f)
	if err != nil {
		return FileInfo{}, fmt.Errorf("unable to parse the header of %q: %w", path, err)
	}
	stat, err := f.Stat()
	if err != nil {
		return FileInfo{}, fmt.Errorf("unable to stat %q: %w", path, err)
	}
	return FileInfo{
		Info:         info,
		Path:         path,
		PayloadBytes: uint64(stat.Size()) - HeaderSize,
	}, nil
}
