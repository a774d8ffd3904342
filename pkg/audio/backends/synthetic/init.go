package synthetic

import (
	"github.com/jichen-jay/esp32-sound/pkg/audio/registry"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
)

const (
	Name     = "synthetic"
	Priority = registry.PriorityExplicitOnly
)

func init() {
	registry.RegisterSourceFactory(Name, Priority, SourcePCMFactory{})
}

type SourcePCMFactory struct{}

func (SourcePCMFactory) NewSourcePCM() (types.SourcePCM, error) {
	return NewSourcePCM(), nil
}
