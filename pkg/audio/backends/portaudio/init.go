package portaudio

import (
	"github.com/jichen-jay/esp32-sound/pkg/audio/registry"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

const (
	Name     = "portaudio"
	Priority = 60
)

func init() {
	registry.RegisterSourceFactory(Name, Priority, SourcePCMFactory{})
}

type SourcePCMFactory struct{}

func (SourcePCMFactory) NewSourcePCM() (types.SourcePCM, error) {
	return NewSourcePCM()
}
