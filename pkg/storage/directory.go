package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/shirou/gopsutil/v3/disk"
)

type DiskUsageFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

// Directory is a Mount backed by an already mounted host directory (for
// example the mount point of an SD card).
type Directory struct {
	Path            string
	CreateIfMissing bool

	// RequiredBytes is the free space Mount insists on; zero disables the check.
	RequiredBytes uint64

	// DiskUsage defaults to disk.UsageWithContext.
	DiskUsage DiskUsageFunc

	locker  sync.Mutex
	mounted bool
}

var _ Mount = (*Directory)(nil)

func NewDirectory(path string, createIfMissing bool) *Directory {
	return &Directory{
		Path:            path,
		CreateIfMissing: createIfMissing,
	}
}

func (d *Directory) Mount(ctx context.Context) (_ret string, _err error) {
	logger.Debugf(ctx, "Mount: %q", d.Path)
	defer func() { logger.Debugf(ctx, "/Mount: %q: %q %v", d.Path, _ret, _err) }()

	d.locker.Lock()
	defer d.locker.Unlock()
	if d.mounted {
		return "", ErrAlreadyMounted
	}
	if d.Path == "" {
		return "", fmt.Errorf("the mount point is not set")
	}

	root, err := filepath.Abs(d.Path)
	if err != nil {
		return "", fmt.Errorf("unable to resolve the mount point %q: %w", d.Path, err)
	}

	stat, err := os.Stat(root)
	switch {
	case os.IsNotExist(err) && d.CreateIfMissing:
		logger.Infof(ctx, "creating the mount point %q", root)
		if err := os.MkdirAll(root, 0755); err != nil {
			return "", fmt.Errorf("unable to create the mount point %q: %w", root, err)
		}
	case err != nil:
		return "", fmt.Errorf("unable to access the mount point %q: %w", root, err)
	case !stat.IsDir():
		return "", fmt.Errorf("the mount point %q is not a directory", root)
	}

	if err := probeWritable(root); err != nil {
		return "", err
	}

	if err := d.checkUsage(ctx, root); err != nil {
		return "", err
	}

	d.mounted = true
	logger.Infof(ctx, "filesystem mounted at %q", root)
	return root, nil
}

func (d *Directory) Unmount(ctx context.Context) error {
	logger.Debugf(ctx, "Unmount: %q", d.Path)
	defer func() { logger.Debugf(ctx, "/Unmount: %q", d.Path) }()

	d.locker.Lock()
	defer d.locker.Unlock()
	if !d.mounted {
		return ErrNotMounted
	}
	d.mounted = false
	logger.Infof(ctx, "filesystem at %q unmounted", d.Path)
	return nil
}

func probeWritable(root string) error {
	f, err := os.CreateTemp(root, ".probe-*")
	if err != nil {
		return fmt.Errorf("the mount point %q is not writable: %w", root, err)
	}
	name := f.Name()
	closeErr := f.Close()
	removeErr := os.Remove(name)
	if closeErr != nil {
		return fmt.Errorf("unable to close the probe file %q: %w", name, closeErr)
	}
	if removeErr != nil {
		return fmt.Errorf("unable to remove the probe file %q: %w", name, removeErr)
	}
	return nil
}

func (d *Directory) checkUsage(ctx context.Context, root string) error {
	diskUsage := d.DiskUsage
	if diskUsage == nil {
		diskUsage = disk.UsageWithContext
	}

	usage, err := diskUsage(ctx, root)
	if err != nil {
		if d.RequiredBytes == 0 {
			logger.Warnf(ctx, "unable to get the filesystem usage of %q: %v", root, err)
			return nil
		}
		return fmt.Errorf("unable to get the filesystem usage of %q: %w", root, err)
	}
	logger.Infof(ctx, "filesystem %q (%s): total %d bytes, free %d bytes, %.1f%% used",
		root, usage.Fstype, usage.Total, usage.Free, usage.UsedPercent)

	if usage.Free < d.RequiredBytes {
		return fmt.Errorf("not enough free space on %q: %d < %d bytes", root, usage.Free, d.RequiredBytes)
	}
	return nil
}
