// Package session runs one recording from mounting the storage to releasing
// every resource.
package session

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/jichen-jay/esp32-sound/pkg/audio"
	"github.com/jichen-jay/esp32-sound/pkg/audio/types"
	"github.com/jichen-jay/esp32-sound/pkg/capture"
	"github.com/jichen-jay/esp32-sound/pkg/storage"
	"github.com/jichen-jay/esp32-sound/pkg/wav"
)

// SourceOpener initializes the peripheral driver.
type SourceOpener func(ctx context.Context) (types.SourcePCM, error)

// SourceFromRegistry opens the named backend, or the best available one
// if name is empty.
func SourceFromRegistry(name string) SourceOpener {
	return func(ctx context.Context) (types.SourcePCM, error) {
		if name == "" {
			return audio.NewSourceAuto(ctx)
		}
		return audio.NewSourceByName(ctx, name)
	}
}

type Controller struct {
	Storage    storage.Mount
	OpenSource SourceOpener

	Params          types.StreamParams
	DurationSeconds uint32
	FileName        string
	Peripheral      types.PeripheralConfig

	Pipeline      capture.Pipeline
	OnStateChange StateChangeFunc
}

type run struct {
	*Controller
	report Report
	state  State
}

// Run performs the whole session. It never panics on peripheral or storage
// failures; they are reported in the returned Report.
func (c *Controller) Run(ctx context.Context) Report {
	r := &run{
		Controller: c,
		report: Report{
			ID:         uuid.New(),
			State:      StateIdle,
			TotalBytes: c.Params.TotalBytes(c.DurationSeconds),
			StartedAt:  time.Now(),
		},
		state: StateIdle,
	}
	ctx = logger.CtxWithLogger(ctx, logger.FromCtx(ctx).WithField("session_id", r.report.ID.String()))

	logger.Debugf(ctx, "Run: %s for %d seconds into %q", c.Params, c.DurationSeconds, c.FileName)
	r.execute(ctx)
	r.report.State = r.state
	r.report.Duration = time.Since(r.report.StartedAt)
	logger.Debugf(ctx, "/Run: %s", r.report)
	return r.report
}

func (r *run) transition(ctx context.Context, to State) {
	from := r.state
	r.state = to
	logger.Infof(ctx, "session state: %s -> %s", from, to)
	if r.OnStateChange != nil {
		r.OnStateChange(ctx, from, to)
	}
}

func (r *run) fail(ctx context.Context, kind capture.Kind, err error) {
	r.report.Kind = kind
	r.report.Err = err
	logger.Errorf(ctx, "session failed (%s): %v", kind, err)
	r.transition(ctx, StateFailed)
}

func (r *run) validate() error {
	if r.Storage == nil {
		return fmt.Errorf("storage is not set")
	}
	if r.OpenSource == nil {
		return fmt.Errorf("sample source is not set")
	}
	if err := r.Params.Validate(); err != nil {
		return err
	}
	if r.FileName == "" {
		return fmt.Errorf("output file name is empty")
	}
	if strings.ContainsAny(r.FileName, `/\`) || r.FileName == "." || r.FileName == ".." {
		return fmt.Errorf("output file name %q must not contain path separators", r.FileName)
	}
	if r.report.TotalBytes > wav.MaxDataSize {
		return fmt.Errorf("%d seconds of %s do not fit a WAV file", r.DurationSeconds, r.Params)
	}
	return nil
}

func (r *run) execute(ctx context.Context) {
	if err := r.validate(); err != nil {
		r.fail(ctx, capture.KindInvalidArgument, capture.ErrInvalidArgument{Err: err})
		return
	}

	r.transition(ctx, StateStorageMounting)
	root, err := r.Storage.Mount(ctx)
	if err != nil {
		r.fail(ctx, capture.KindStorage, capture.ErrStorage{Err: fmt.Errorf("unable to mount the storage: %w", err)})
		return
	}
	t := &teardown{storage: r.Storage}

	r.transition(ctx, StatePeripheralInitializing)
	stream, err := r.initPeripheral(ctx, t)
	if err != nil {
		r.transition(ctx, StateFinalizing)
		r.finish(ctx, t, capture.KindCapture, capture.ErrCapture{Err: err})
		return
	}

	r.transition(ctx, StateRecording)
	r.report.Path = filepath.Join(root, r.FileName)
	result, err := r.Pipeline.Run(ctx, stream, r.report.Path, r.Params, r.report.TotalBytes)
	r.report.WrittenBytes = result.WrittenBytes
	r.report.Timeouts = result.Timeouts
	r.report.HeaderRewritten = result.HeaderRewritten

	r.transition(ctx, StateFinalizing)
	r.finish(ctx, t, capture.KindOf(err), err)
}

func (r *run) initPeripheral(ctx context.Context, t *teardown) (types.CaptureStream, error) {
	source, err := r.OpenSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize the sample source: %w", err)
	}
	t.source = source

	logger.Tracef(ctx, "OpenPCM")
	stream, err := source.OpenPCM(ctx, r.Params, r.Peripheral)
	logger.Tracef(ctx, "/OpenPCM: %v", err)
	if err != nil {
		return nil, fmt.Errorf("unable to open a capture stream of %s: %w", r.Params, err)
	}
	t.stream = stream
	return stream, nil
}

// finish releases everything and settles the terminal state. A recording
// error takes precedence over the teardown errors; a successful recording
// with a failed teardown is still a failure, of the kind of the first layer
// that failed to be released.
func (r *run) finish(
	ctx context.Context,
	t *teardown,
	kind capture.Kind,
	err error,
) {
	teardownKind, teardownErr := t.run(ctx)

	if err == nil && teardownErr == nil {
		r.transition(ctx, StateComplete)
		return
	}

	switch {
	case err == nil:
		r.fail(ctx, teardownKind, teardownErr)
	case teardownErr == nil:
		r.fail(ctx, kindOrCapture(kind), err)
	default:
		r.fail(ctx, kindOrCapture(kind), multierror.Append(err, teardownErr))
	}
}

func kindOrCapture(kind capture.Kind) capture.Kind {
	if kind == capture.KindNone {
		return capture.KindCapture
	}
	return kind
}

type teardown struct {
	storage storage.Mount
	source  types.SourcePCM
	stream  types.CaptureStream
}

// run releases in reverse order of acquisition, keeping on after failures.
func (t *teardown) run(ctx context.Context) (capture.Kind, error) {
	kind := capture.KindNone
	var mErr *multierror.Error
	record := func(k capture.Kind, err error) {
		if kind == capture.KindNone {
			kind = k
		}
		logger.Errorf(ctx, "teardown: %v", err)
		mErr = multierror.Append(mErr, err)
	}

	if t.stream != nil {
		logger.Debugf(ctx, "closing the capture stream")
		if err := t.stream.Close(); err != nil {
			record(capture.KindCapture, capture.ErrCapture{Err: fmt.Errorf("unable to close the capture stream: %w", err)})
		}
	}
	if t.source != nil {
		logger.Debugf(ctx, "releasing the sample source")
		if err := t.source.Close(); err != nil {
			record(capture.KindCapture, capture.ErrCapture{Err: fmt.Errorf("unable to release the sample source: %w", err)})
		}
	}
	if t.storage != nil {
		logger.Debugf(ctx, "unmounting the storage")
		if err := t.storage.Unmount(ctx); err != nil {
			record(capture.KindStorage, capture.ErrStorage{Err: fmt.Errorf("unable to unmount the storage: %w", err)})
		}
	}
	return kind, mErr.ErrorOrNil()
}
