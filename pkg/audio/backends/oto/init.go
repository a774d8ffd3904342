package oto

import (
	"github.com/jichen-jay/esp32-sound/pkg/audio/registry"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

const (
	Name     = "oto"
	Priority = 50
)

func init() {
	registry.RegisterPlayerFactory(Name, Priority, PlayerPCMOtoFactory{})
}

type PlayerPCMOtoFactory struct{}

func (PlayerPCMOtoFactory) NewPlayerPCM() (types.PlayerPCM, error) {
	return NewPlayerPCM(), nil
}
