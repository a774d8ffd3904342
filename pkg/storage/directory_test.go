package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/require"
)

func fixedUsage(free uint64) DiskUsageFunc {
	return func(ctx context.Context, path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{
			Path:   path,
			Fstype: "vfat",
			Total:  free * 2,
			Free:   free,
		}, nil
	}
}

func TestDirectoryMount(t *testing.T) {
	ctx := context.Background()

	t.Run("existing", func(t *testing.T) {
		dir := t.TempDir()
		d := NewDirectory(dir, false)
		d.DiskUsage = fixedUsage(1 << 20)
		root, err := d.Mount(ctx)
		require.NoError(t, err)
		require.Equal(t, dir, root)

		_, err = d.Mount(ctx)
		require.ErrorIs(t, err, ErrAlreadyMounted)

		require.NoError(t, d.Unmount(ctx))
		require.ErrorIs(t, d.Unmount(ctx), ErrNotMounted)

		entries, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Empty(t, entries, "the writability probe must not be left behind")
	})

	t.Run("missing", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "sdcard")
		_, err := NewDirectory(dir, false).Mount(ctx)
		require.Error(t, err)

		d := NewDirectory(dir, true)
		d.DiskUsage = fixedUsage(1 << 20)
		root, err := d.Mount(ctx)
		require.NoError(t, err)
		require.Equal(t, dir, root)
		require.DirExists(t, dir)
	})

	t.Run("not_a_directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		_, err := NewDirectory(path, true).Mount(ctx)
		require.Error(t, err)
	})

	t.Run("not_enough_space", func(t *testing.T) {
		d := NewDirectory(t.TempDir(), false)
		d.RequiredBytes = 320044
		d.DiskUsage = fixedUsage(320043)
		_, err := d.Mount(ctx)
		require.Error(t, err)
		require.ErrorIs(t, d.Unmount(ctx), ErrNotMounted)

		d.DiskUsage = fixedUsage(320044)
		_, err = d.Mount(ctx)
		require.NoError(t, err)
	})

	t.Run("usage_unavailable", func(t *testing.T) {
		d := NewDirectory(t.TempDir(), false)
		d.DiskUsage = func(ctx context.Context, path string) (*disk.UsageStat, error) {
			return nil, fmt.Errorf("not supported")
		}
		_, err := d.Mount(ctx)
		require.NoError(t, err)
		require.NoError(t, d.Unmount(ctx))

		d.RequiredBytes = 1
		_, err = d.Mount(ctx)
		require.Error(t, err)
	})
}
