package fsx_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/clipmenu/clipmenu-go/internal/fsx"
)

func TestLocker_TryLock_ReturnsErrWouldBlock_WhenPathIsLocked(t *testing.T) {
	locker := fsx.NewLocker(fsx.NewReal())
	path := filepath.Join(t.TempDir(), "lock")

	lock1, err := locker.TryLock(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lock1.Close() })

	lock2, err := locker.TryLock(path)
	require.ErrorIs(t, err, fsx.ErrWouldBlock)
	require.Nil(t, lock2)

	require.NoError(t, lock1.Close())

	lock3, err := locker.TryLock(path)
	require.NoError(t, err)
	require.NoError(t, lock3.Close())
}

func TestLocker_Lock_BlocksUntilPriorHolderReleases(t *testing.T) {
	locker := fsx.NewLocker(fsx.NewReal())
	path := filepath.Join(t.TempDir(), "lock")

	lock1, err := locker.Lock(path)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		lock2, err := locker.Lock(path)
		require.NoError(t, err)
		require.NoError(t, lock2.Close())
		close(done)
	}()

	require.NoError(t, lock1.Close())
	<-done
}

func TestLocker_RLock_AllowsMultipleReadersAndBlocksWriter(t *testing.T) {
	locker := fsx.NewLocker(fsx.NewReal())
	path := filepath.Join(t.TempDir(), "lock")

	r1, err := locker.RLock(path)
	require.NoError(t, err)
	defer r1.Close()

	r2, err := locker.RLock(path)
	require.NoError(t, err)
	defer r2.Close()

	_, err = locker.TryLock(path)
	require.ErrorIs(t, err, fsx.ErrWouldBlock)
}

func TestLock_Close_IsIdempotent(t *testing.T) {
	locker := fsx.NewLocker(fsx.NewReal())
	path := filepath.Join(t.TempDir(), "lock")

	lock, err := locker.TryLock(path)
	require.NoError(t, err)

	require.NoError(t, lock.Close())
	require.NoError(t, lock.Close())
}
