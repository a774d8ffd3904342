package audio

import (
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

type (
	SampleRate       = types.SampleRate
	Channel          = types.Channel
	PCMFormat        = types.PCMFormat
	StreamParams     = types.StreamParams
	PeripheralConfig = types.PeripheralConfig
	SourcePCM        = types.SourcePCM
	CaptureStream    = types.CaptureStream
	PlayerPCM        = types.PlayerPCM
	Stream           = types.Stream
	PlayStream       = types.PlayStream
)

const (
	PCMFormatUndefined = types.PCMFormatUndefined
	PCMFormatU8        = types.PCMFormatU8
	PCMFormatS16LE     = types.PCMFormatS16LE
	PCMFormatS24LE     = types.PCMFormatS24LE
	PCMFormatS32LE     = types.PCMFormatS32LE
)

var ErrTimeout = types.ErrTimeout
