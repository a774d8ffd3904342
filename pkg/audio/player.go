package audio

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/jichen-jay/esp32-sound/pkg/audio/registry"
)

const BufferSize = 100 * time.Millisecond

type Player struct {
	PlayerPCM
	BackendName string
}

func NewPlayer(name string, playerPCM PlayerPCM) *Player {
	return &Player{
		PlayerPCM:   playerPCM,
		BackendName: name,
	}
}

var (
	lastSuccessfulPlayerFactory       *registry.NamedPlayerPCMFactory
	lastSuccessfulPlayerFactoryLocker sync.Mutex
)

func getLastSuccessfulPlayerFactory() *registry.NamedPlayerPCMFactory {
	lastSuccessfulPlayerFactoryLocker.Lock()
	defer lastSuccessfulPlayerFactoryLocker.Unlock()
	return lastSuccessfulPlayerFactory
}

func setLastSuccessfulPlayerFactory(factory registry.NamedPlayerPCMFactory) {
	lastSuccessfulPlayerFactoryLocker.Lock()
	defer lastSuccessfulPlayerFactoryLocker.Unlock()
	lastSuccessfulPlayerFactory = &factory
}

// NewPlayerAuto returns the first player backend (by priority) that works,
// falling back to PlayerPCMDiscard.
func NewPlayerAuto(
	ctx context.Context,
) *Player {
	if factory := getLastSuccessfulPlayerFactory(); factory != nil {
		player, err := tryNewPlayer(ctx, *factory)
		if err == nil {
			return player
		}
		logger.Debugf(ctx, "the last successful player factory %q does not work anymore: %v", factory.Name, err)
	}

	var mErr *multierror.Error
	for _, factory := range registry.PlayerFactories() {
		player, err := tryNewPlayer(ctx, factory)
		if err != nil {
			mErr = multierror.Append(mErr, err)
			continue
		}
		setLastSuccessfulPlayerFactory(factory)
		return player
	}

	logger.Infof(ctx, "was unable to initialize any PCM player: %v", mErr.ErrorOrNil())
	return NewPlayer(PlayerDiscardName, PlayerPCMDiscard{})
}

// NewPlayerByName initializes the player backend registered with the given
// name; PlayerDiscardName is always available.
func NewPlayerByName(
	ctx context.Context,
	name string,
) (*Player, error) {
	if name == PlayerDiscardName {
		return NewPlayer(PlayerDiscardName, PlayerPCMDiscard{}), nil
	}
	factory, ok := registry.PlayerFactory(name)
	if !ok {
		return nil, fmt.Errorf("unknown audio player backend %q, known backends: %v", name, PlayerBackendNames())
	}
	return tryNewPlayer(ctx, registry.NamedPlayerPCMFactory{
		Name:             name,
		PlayerPCMFactory: factory,
	})
}

func PlayerBackendNames() []string {
	names := []string{PlayerDiscardName}
	for _, factory := range registry.PlayerFactories() {
		names = append(names, factory.Name)
	}
	sort.Strings(names)
	return names
}

func tryNewPlayer(
	ctx context.Context,
	factory registry.NamedPlayerPCMFactory,
) (*Player, error) {
	player, err := factory.NewPlayerPCM()
	logger.Debugf(ctx, "initializing player %q result is %v", factory.Name, err)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize %q: %w", factory.Name, err)
	}

	err = player.Ping(ctx)
	logger.Debugf(ctx, "pinging PCM player %q result is %v", factory.Name, err)
	if err != nil {
		if closeErr := player.Close(); closeErr != nil {
			logger.Warnf(ctx, "unable to close player %q: %v", factory.Name, closeErr)
		}
		return nil, fmt.Errorf("unable to ping %q: %w", factory.Name, err)
	}

	return NewPlayer(factory.Name, player), nil
}

func (a *Player) PlayPCM(
	ctx context.Context,
	params StreamParams,
	bufferSize time.Duration,
	pcmReader io.Reader,
) (PlayStream, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid stream parameters: %w", err)
	}
	if bufferSize <= 0 {
		bufferSize = BufferSize
	}
	return a.PlayerPCM.PlayPCM(
		ctx,
		params,
		bufferSize,
		pcmReader,
	)
}
