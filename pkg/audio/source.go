package audio

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/hashicorp/go-multierror"
	"github.com/jichen-jay/esp32-sound/pkg/audio/registry"
)

// Source is a peripheral driver selected from the backend registry.
type Source struct {
	SourcePCM
	BackendName string
}

func NewSource(name string, sourcePCM SourcePCM) *Source {
	return &Source{
		SourcePCM:   sourcePCM,
		BackendName: name,
	}
}

var (
	lastSuccessfulSourceFactory       *registry.NamedSourcePCMFactory
	lastSuccessfulSourceFactoryLocker sync.Mutex
)

func getLastSuccessfulSourceFactory() *registry.NamedSourcePCMFactory {
	lastSuccessfulSourceFactoryLocker.Lock()
	defer lastSuccessfulSourceFactoryLocker.Unlock()
	return lastSuccessfulSourceFactory
}

func setLastSuccessfulSourceFactory(factory registry.NamedSourcePCMFactory) {
	lastSuccessfulSourceFactoryLocker.Lock()
	defer lastSuccessfulSourceFactoryLocker.Unlock()
	lastSuccessfulSourceFactory = &factory
}

// NewSourceAuto returns the first backend (by priority) that initializes and
// answers a ping. Unlike the player there is no dummy fallback: a recorder
// without a peripheral would only ever time out.
func NewSourceAuto(
	ctx context.Context,
) (*Source, error) {
	if factory := getLastSuccessfulSourceFactory(); factory != nil {
		source, err := tryNewSource(ctx, *factory)
		if err == nil {
			return source, nil
		}
		logger.Debugf(ctx, "the last successful source factory %q does not work anymore: %v", factory.Name, err)
	}

	var mErr *multierror.Error
	for _, factory := range registry.SourceFactories() {
		if factory.Priority <= registry.PriorityExplicitOnly {
			continue
		}
		source, err := tryNewSource(ctx, factory)
		if err != nil {
			mErr = multierror.Append(mErr, err)
			continue
		}
		setLastSuccessfulSourceFactory(factory)
		return source, nil
	}

	if mErr == nil {
		return nil, fmt.Errorf("no auto-selectable audio source backends are registered, known backends: %v", SourceBackendNames())
	}
	return nil, fmt.Errorf("was unable to initialize any PCM source: %w", mErr.ErrorOrNil())
}

// NewSourceByName initializes the backend registered with the given name.
func NewSourceByName(
	ctx context.Context,
	name string,
) (*Source, error) {
	factory, ok := registry.SourceFactory(name)
	if !ok {
		return nil, fmt.Errorf("unknown audio source backend %q, known backends: %v", name, SourceBackendNames())
	}
	return tryNewSource(ctx, factory)
}

func SourceBackendNames() []string {
	var names []string
	for _, factory := range registry.SourceFactories() {
		names = append(names, factory.Name)
	}
	sort.Strings(names)
	return names
}

func tryNewSource(
	ctx context.Context,
	factory registry.NamedSourcePCMFactory,
) (*Source, error) {
	source, err := factory.NewSourcePCM()
	logger.Debugf(ctx, "initializing source %q result is %v", factory.Name, err)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize %q: %w", factory.Name, err)
	}

	err = source.Ping(ctx)
	logger.Debugf(ctx, "pinging PCM source %q result is %v", factory.Name, err)
	if err != nil {
		if closeErr := source.Close(); closeErr != nil {
			logger.Warnf(ctx, "unable to close source %q: %v", factory.Name, closeErr)
		}
		return nil, fmt.Errorf("unable to ping %q: %w", factory.Name, err)
	}

	return NewSource(factory.Name, source), nil
}
