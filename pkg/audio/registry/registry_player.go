package registry

import (
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

type PlayerPCMFactory interface {
	NewPlayerPCM() (types.PlayerPCM, error)
}

type NamedPlayerPCMFactory struct {
	Name string
	PlayerPCMFactory
}

var playerFactoryRegistry = newFactoryRegistry[PlayerPCMFactory]("PlayerPCM")

func RegisterPlayerFactory(
	name string,
	priority int,
	playerPCMFactory PlayerPCMFactory,
) {
	playerFactoryRegistry.register(name, priority, playerPCMFactory)
}

func PlayerFactories() []NamedPlayerPCMFactory {
	var factories []NamedPlayerPCMFactory
	for _, e := range playerFactoryRegistry.sorted() {
		factories = append(factories, NamedPlayerPCMFactory{
			Name:             e.Name,
			PlayerPCMFactory: e.Factory,
		})
	}
	return factories
}

func PlayerFactory(name string) (PlayerPCMFactory, bool) {
	e, ok := playerFactoryRegistry.entries[name]
	return e.Factory, ok
}
