package pulseaudio

import (
	"github.com/jichen-jay/esp32-sound/pkg/audio/registry"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

const (
	Name     = "pulseaudio"
	Priority = 100
)

func init() {
	registry.RegisterPlayerFactory(Name, Priority, PlayerPCMPulseFactory{})
	registry.RegisterSourceFactory(Name, Priority, SourcePCMPulseFactory{})
}

type PlayerPCMPulseFactory struct{}

func (PlayerPCMPulseFactory) NewPlayerPCM() (types.PlayerPCM, error) {
	return NewPlayerPCM()
}

type SourcePCMPulseFactory struct{}

func (SourcePCMPulseFactory) NewSourcePCM() (types.SourcePCM, error) {
	return NewSourcePCM()
}
