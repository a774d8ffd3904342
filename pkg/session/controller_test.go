package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/jichen-jay/esp32-sound/pkg/audio/backends/synthetic"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
	"github.com/jichen-jay/esp32-sound/pkg/capture"
	"github.com/jichen-jay/esp32-sound/pkg/wav"
	"github.com/stretchr/testify/require"
)

type fakeMount struct {
	root       string
	mountErr   error
	unmountErr error

	mounts   int
	unmounts int
}

func (m *fakeMount) Mount(ctx context.Context) (string, error) {
	m.mounts++
	if m.mountErr != nil {
		return "", m.mountErr
	}
	return m.root, nil
}

func (m *fakeMount) Unmount(ctx context.Context) error {
	m.unmounts++
	return m.unmountErr
}

// trackedSource counts the releases of a synthetic source.
type trackedSource struct {
	*synthetic.SourcePCM
	openErr  error
	closeErr error

	closes int
	stream *trackedStream
}

type trackedStream struct {
	types.CaptureStream
	closes int
}

func (s *trackedStream) Close() error {
	s.closes++
	return s.CaptureStream.Close()
}

func (s *trackedSource) OpenPCM(
	ctx context.Context,
	params types.StreamParams,
	cfg types.PeripheralConfig,
) (types.CaptureStream, error) {
	if s.openErr != nil {
		return nil, s.openErr
	}
	stream, err := s.SourcePCM.OpenPCM(ctx, params, cfg)
	if err != nil {
		return nil, err
	}
	s.stream = &trackedStream{CaptureStream: stream}
	return s.stream, nil
}

func (s *trackedSource) Close() error {
	s.closes++
	return s.closeErr
}

type fixture struct {
	mount       *fakeMount
	source      *trackedSource
	sourceErr   error
	sourceCalls int
	states      []State
	controller  *Controller
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		mount:  &fakeMount{root: t.TempDir()},
		source: &trackedSource{SourcePCM: synthetic.NewSourcePCM()},
	}
	f.controller = &Controller{
		Storage: f.mount,
		OpenSource: func(ctx context.Context) (types.SourcePCM, error) {
			f.sourceCalls++
			if f.sourceErr != nil {
				return nil, f.sourceErr
			}
			return f.source, nil
		},
		Params: types.StreamParams{
			SampleRate: 16000,
			Channels:   1,
			Format:     types.PCMFormatS16LE,
		},
		DurationSeconds: 10,
		FileName:        "record.wav",
		Peripheral: types.PeripheralConfig{
			synthetic.ConfigWaveform: string(synthetic.WaveformRamp),
			synthetic.ConfigPaced:    "false",
		},
		OnStateChange: func(ctx context.Context, from, to State) {
			f.states = append(f.states, to)
		},
	}
	return f
}

func (f *fixture) path() string {
	return filepath.Join(f.mount.root, f.controller.FileName)
}

func TestSessionComplete(t *testing.T) {
	f := newFixture(t)
	report := f.controller.Run(context.Background())
	require.Equal(t, StateComplete, report.State, spew.Sdump(report))
	require.NoError(t, report.Err)
	require.Equal(t, capture.KindNone, report.Kind)
	require.Equal(t, uint64(320000), report.TotalBytes)
	require.Equal(t, uint64(320000), report.WrittenBytes)
	require.Equal(t, f.path(), report.Path)
	require.Equal(t, []State{
		StateStorageMounting,
		StatePeripheralInitializing,
		StateRecording,
		StateFinalizing,
		StateComplete,
	}, f.states)

	fi, err := wav.Inspect(report.Path)
	require.NoError(t, err)
	require.Equal(t, uint32(320036), fi.ChunkSize)
	require.Equal(t, uint32(320000), fi.DataSize)
	require.True(t, fi.Consistent())

	require.Equal(t, 1, f.source.stream.closes)
	require.Equal(t, 1, f.source.closes)
	require.Equal(t, 1, f.mount.unmounts)
}

func TestSessionMountFailure(t *testing.T) {
	f := newFixture(t)
	f.mount.mountErr = errors.New("no card")
	report := f.controller.Run(context.Background())
	require.Equal(t, StateFailed, report.State)
	require.Equal(t, capture.KindStorage, report.Kind)
	require.Zero(t, f.sourceCalls)
	require.Zero(t, f.mount.unmounts)
	require.Equal(t, []State{StateStorageMounting, StateFailed}, f.states)
	_, err := os.Stat(f.path())
	require.True(t, os.IsNotExist(err))
}

func TestSessionPeripheralInitFailure(t *testing.T) {
	t.Run("driver", func(t *testing.T) {
		f := newFixture(t)
		f.sourceErr = errors.New("no such device")
		report := f.controller.Run(context.Background())
		require.Equal(t, StateFailed, report.State)
		require.Equal(t, capture.KindCapture, report.Kind)
		require.ErrorIs(t, report.Err, f.sourceErr)
		require.Equal(t, 1, f.mount.unmounts)
		require.Zero(t, f.source.closes)
		require.Equal(t, []State{StateStorageMounting, StatePeripheralInitializing, StateFinalizing, StateFailed}, f.states)
		_, err := os.Stat(f.path())
		require.True(t, os.IsNotExist(err))
	})

	t.Run("stream", func(t *testing.T) {
		f := newFixture(t)
		f.source.openErr = errors.New("clock setup failed")
		report := f.controller.Run(context.Background())
		require.Equal(t, StateFailed, report.State)
		require.Equal(t, capture.KindCapture, report.Kind)
		require.Equal(t, 1, f.source.closes)
		require.Equal(t, 1, f.mount.unmounts)
		require.Equal(t, []State{StateStorageMounting, StatePeripheralInitializing, StateFinalizing, StateFailed}, f.states)
	})
}

func TestSessionPeripheralErrorMidStream(t *testing.T) {
	f := newFixture(t)
	f.controller.Peripheral[synthetic.ConfigFailAfterBytes] = "100000"
	report := f.controller.Run(context.Background())
	require.Equal(t, StateFailed, report.State, spew.Sdump(report))
	require.Equal(t, capture.KindCapture, report.Kind)
	require.Equal(t, uint64(100000), report.WrittenBytes)
	require.Equal(t, 1, f.source.stream.closes)
	require.Equal(t, 1, f.source.closes)
	require.Equal(t, 1, f.mount.unmounts)

	fi, err := wav.Inspect(report.Path)
	require.NoError(t, err)
	require.Equal(t, uint64(100000), fi.PayloadBytes)
	require.Equal(t, uint32(320000), fi.DataSize)
}

func TestSessionTeardownFailure(t *testing.T) {
	t.Run("unmount", func(t *testing.T) {
		f := newFixture(t)
		f.controller.DurationSeconds = 1
		f.mount.unmountErr = errors.New("busy")
		report := f.controller.Run(context.Background())
		require.Equal(t, StateFailed, report.State)
		require.Equal(t, capture.KindStorage, report.Kind)
		require.ErrorIs(t, report.Err, f.mount.unmountErr)
		require.Equal(t, uint64(32000), report.WrittenBytes)
	})

	t.Run("peripheral_and_unmount", func(t *testing.T) {
		f := newFixture(t)
		f.controller.DurationSeconds = 1
		f.source.closeErr = errors.New("driver stuck")
		f.mount.unmountErr = errors.New("busy")
		report := f.controller.Run(context.Background())
		require.Equal(t, StateFailed, report.State)
		require.Equal(t, capture.KindCapture, report.Kind)
		require.ErrorIs(t, report.Err, f.source.closeErr)
		require.ErrorIs(t, report.Err, f.mount.unmountErr)
		require.Equal(t, 1, f.mount.unmounts)
	})

	t.Run("after_recording_failure", func(t *testing.T) {
		f := newFixture(t)
		f.controller.Peripheral[synthetic.ConfigFailAfterBytes] = "1000"
		f.mount.unmountErr = errors.New("busy")
		report := f.controller.Run(context.Background())
		require.Equal(t, StateFailed, report.State)
		require.Equal(t, capture.KindCapture, report.Kind)
		require.ErrorIs(t, report.Err, f.mount.unmountErr)
	})
}

func TestSessionInvalidArguments(t *testing.T) {
	for name, mutate := range map[string]func(c *Controller){
		"file_name_with_separator": func(c *Controller) { c.FileName = "../record.wav" },
		"empty_file_name":          func(c *Controller) { c.FileName = "" },
		"zero_sample_rate":         func(c *Controller) { c.Params.SampleRate = 0 },
		"no_storage":               func(c *Controller) { c.Storage = nil },
		"byte_rate_overflow": func(c *Controller) {
			c.Params = types.StreamParams{SampleRate: 1 << 30, Channels: 1, Format: types.PCMFormatS32LE}
		},
		"block_align_overflow": func(c *Controller) {
			c.Params = types.StreamParams{SampleRate: 8000, Channels: 20000, Format: types.PCMFormatS32LE}
		},
	} {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			mutate(f.controller)
			report := f.controller.Run(context.Background())
			require.Equal(t, StateFailed, report.State)
			require.Equal(t, capture.KindInvalidArgument, report.Kind)
			require.Zero(t, f.mount.mounts)
			require.Zero(t, f.sourceCalls)
		})
	}
}

func TestSessionZeroDuration(t *testing.T) {
	f := newFixture(t)
	f.controller.DurationSeconds = 0
	report := f.controller.Run(context.Background())
	require.Equal(t, StateComplete, report.State)
	b, err := os.ReadFile(report.Path)
	require.NoError(t, err)
	require.Len(t, b, wav.HeaderSize)
}
