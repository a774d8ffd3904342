package session

import (
	"context"
	"fmt"
)

type State uint

const (
	StateIdle = State(iota)
	StateStorageMounting
	StatePeripheralInitializing
	StateRecording
	StateFinalizing
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateStorageMounting:
		return "StorageMounting"
	case StatePeripheralInitializing:
		return "PeripheralInitializing"
	case StateRecording:
		return "Recording"
	case StateFinalizing:
		return "Finalizing"
	case StateComplete:
		return "Complete"
	case StateFailed:
		return "Failed"
	default:
		return fmt.Sprintf("<unexpected_state_%d>", uint(s))
	}
}

// Terminal reports if no transition leaves the state.
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// StateChangeFunc observes transitions; it cannot alter the session.
type StateChangeFunc func(ctx context.Context, from, to State)
