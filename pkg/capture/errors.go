package capture

import (
	"errors"
	"fmt"
)

// Kind is the class of a failure of a recording.
type Kind int

const (
	KindNone = Kind(iota)
	// KindStorage: mount, open, write or close failures of the storage.
	KindStorage
	// KindCapture: the peripheral failed (or capture was interrupted) after it was initialized.
	KindCapture
	// KindInvalidArgument: the recording could not even start because of its parameters.
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStorage:
		return "StorageError"
	case KindCapture:
		return "CaptureError"
	case KindInvalidArgument:
		return "InvalidArgument"
	default:
		return fmt.Sprintf("<unexpected_kind_%d>", int(k))
	}
}

type ErrStorage struct {
	Err error
}

func (e ErrStorage) Error() string {
	return fmt.Sprintf("storage error: %v", e.Err)
}

func (e ErrStorage) Unwrap() error {
	return e.Err
}

type ErrCapture struct {
	Err error
}

func (e ErrCapture) Error() string {
	return fmt.Sprintf("capture error: %v", e.Err)
}

func (e ErrCapture) Unwrap() error {
	return e.Err
}

type ErrInvalidArgument struct {
	Err error
}

func (e ErrInvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument: %v", e.Err)
}

func (e ErrInvalidArgument) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost kind-carrying error in the chain.
func KindOf(err error) Kind {
	for err != nil {
		switch err.(type) {
		case ErrStorage, *ErrStorage:
			return KindStorage
		case ErrCapture, *ErrCapture:
			return KindCapture
		case ErrInvalidArgument, *ErrInvalidArgument:
			return KindInvalidArgument
		}
		err = errors.Unwrap(err)
	}
	return KindNone
}
