package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jichen-jay/esp32-sound/pkg/capture"
)

// Report is the outcome of one session.
type Report struct {
	ID    uuid.UUID
	State State

	// Kind is KindNone unless State is StateFailed.
	Kind capture.Kind
	// Err aggregates the failure and every teardown error.
	Err error

	Path            string
	WrittenBytes    uint64
	TotalBytes      uint64
	Timeouts        uint64
	HeaderRewritten bool

	StartedAt time.Time
	Duration  time.Duration
}

func (r Report) Failed() bool {
	return r.State == StateFailed
}

func (r Report) String() string {
	if r.Failed() {
		return fmt.Sprintf("session %s: %s (%s) after %d/%d bytes to %q in %v: %v",
			r.ID, r.State, r.Kind, r.WrittenBytes, r.TotalBytes, r.Path, r.Duration.Round(time.Millisecond), r.Err)
	}
	return fmt.Sprintf("session %s: %s, %d/%d bytes to %q in %v",
		r.ID, r.State, r.WrittenBytes, r.TotalBytes, r.Path, r.Duration.Round(time.Millisecond))
}
