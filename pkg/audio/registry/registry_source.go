package registry

import (
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

type SourcePCMFactory interface {
	NewSourcePCM() (types.SourcePCM, error)
}

// NamedSourcePCMFactory is a factory together with the name it was registered with.
type NamedSourcePCMFactory struct {
	Name     string
	Priority int
	SourcePCMFactory
}

// PriorityExplicitOnly marks backends that are never chosen by auto-selection
// (for example generators that would quietly record something that is not a microphone).
const PriorityExplicitOnly = 0

var sourceFactoryRegistry = newFactoryRegistry[SourcePCMFactory]("SourcePCM")

// RegisterSourceFactory is supposed to be called from init() of a backend package.
func RegisterSourceFactory(
	name string,
	priority int,
	sourcePCMFactory SourcePCMFactory,
) {
	sourceFactoryRegistry.register(name, priority, sourcePCMFactory)
}

// SourceFactories returns the registered factories, highest priority first.
func SourceFactories() []NamedSourcePCMFactory {
	var factories []NamedSourcePCMFactory
	for _, e := range sourceFactoryRegistry.sorted() {
		factories = append(factories, NamedSourcePCMFactory{
			Name:             e.Name,
			Priority:         e.Priority,
			SourcePCMFactory: e.Factory,
		})
	}
	return factories
}

func SourceFactory(name string) (NamedSourcePCMFactory, bool) {
	e, ok := sourceFactoryRegistry.entries[name]
	return NamedSourcePCMFactory{
		Name:             e.Name,
		Priority:         e.Priority,
		SourcePCMFactory: e.Factory,
	}, ok
}
