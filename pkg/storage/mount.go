// Package storage provides the filesystem the recordings are written to.
package storage

import (
	"context"
	"errors"
)

var (
	ErrNotMounted     = errors.New("storage is not mounted")
	ErrAlreadyMounted = errors.New("storage is already mounted")
)

// Mount makes a filesystem available under a root directory.
type Mount interface {
	// Mount returns the directory recordings should be created in.
	Mount(ctx context.Context) (root string, err error)
	Unmount(ctx context.Context) error
}
