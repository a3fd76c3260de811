package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
)

// ErrAtomicWriteDirSync indicates the parent directory could not be synced
// after rename. The new file is in place but durability of the rename
// itself is not guaranteed; detect with errors.Is(err, ErrAtomicWriteDirSync).
var ErrAtomicWriteDirSync = errors.New("dir sync")

// AtomicWriter writes content files durably: a new hash never collides with
// an existing one, so content.go only calls [AtomicWriter.Write] when the
// destination is known absent, but a concurrent writer racing on the same
// hash must still see either the whole file or nothing.
type AtomicWriter struct {
	fs FS
}

// NewAtomicWriter creates an AtomicWriter that uses the given filesystem.
// Panics if fs is nil.
func NewAtomicWriter(fs FS) *AtomicWriter {
	if fs == nil {
		panic("fs is nil")
	}

	return &AtomicWriter{fs: fs}
}

// AtomicWriteOptions configures [AtomicWriter.Write].
type AtomicWriteOptions struct {
	// SyncDir controls whether the parent directory is synced after rename,
	// guaranteeing the rename itself survives a crash.
	SyncDir bool

	// Perm specifies the file permissions. Must be non-zero; the temp file
	// is always explicitly chmod'd to this mode, regardless of umask.
	Perm os.FileMode
}

// Write writes all of r to path atomically: a temp file in path's directory
// is written, synced, chmod'd, then renamed over path, with the parent
// directory synced afterward when opts.SyncDir is set. Used by
// createContentFileIfAbsent to write content files named by their own
// content hash.
func (w *AtomicWriter) Write(path string, r io.Reader, opts AtomicWriteOptions) error {
	if r == nil {
		panic("reader is nil")
	}

	if path == "" {
		return errors.New("path is empty")
	}

	if opts.Perm == 0 {
		return errors.New("opts.Perm must be non-zero")
	}

	dir, base := filepath.Split(path)
	if base == "" || base == string(os.PathSeparator) || base == "." {
		return fmt.Errorf("path is invalid: %q", path)
	}

	if dir == "" {
		dir = "."
	}
	dir = filepath.Clean(dir)

	tmpFile, tmpPath, err := createAtomicTempFile(w.fs, dir, base, opts.Perm)
	if err != nil {
		return err
	}

	cleanup := func() error {
		return errors.Join(closeTmpFile(tmpPath, tmpFile), removeTempFile(w.fs, tmpPath))
	}

	if err := tmpFile.Chmod(opts.Perm); err != nil {
		return errors.Join(fmt.Errorf("chmod temp file %q: %w", tmpPath, err), cleanup())
	}

	if err := writeAndSyncTempFile(tmpFile, tmpPath, r); err != nil {
		return errors.Join(err, cleanup())
	}

	if err := w.fs.Rename(tmpPath, path); err != nil {
		return errors.Join(fmt.Errorf("rename: %w", err), cleanup())
	}

	cleanupErr := cleanup()

	if opts.SyncDir {
		if err := fsyncDir(w.fs, dir); err != nil {
			return errors.Join(err, cleanupErr)
		}
	}

	return nil
}

func writeAndSyncTempFile(file File, path string, r io.Reader) error {
	if _, err := io.Copy(file, r); err != nil {
		return fmt.Errorf("write temp file %q: %w", path, err)
	}

	if err := file.Sync(); err != nil {
		return fmt.Errorf("sync temp file %q: %w", path, err)
	}

	return nil
}

const atomicWriteMaxAttempts = 10000

var atomicWriteCounter atomic.Uint64

// createAtomicTempFile picks a name that does not collide with a concurrent
// writer in the same directory, retrying on EEXIST rather than relying on a
// single random suffix.
func createAtomicTempFile(fs FS, dir, base string, perm os.FileMode) (File, string, error) {
	for range atomicWriteMaxAttempts {
		seq := atomicWriteCounter.Add(1)
		path := filepath.Join(dir, fmt.Sprintf(".%s.tmp-%d", base, seq))

		file, err := fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return file, path, nil
		}

		if os.IsExist(err) {
			continue
		}

		return nil, "", fmt.Errorf("create temp file: %w", err)
	}

	return nil, "", fmt.Errorf("exhausted temp file attempts in %q", dir)
}

func fsyncDir(fs FS, dirPath string) error {
	dirFd, err := fs.Open(dirPath)
	if err != nil {
		return errors.Join(ErrAtomicWriteDirSync, fmt.Errorf("open dir %q: %w", dirPath, err))
	}

	if err := dirFd.Sync(); err != nil {
		return errors.Join(ErrAtomicWriteDirSync, fmt.Errorf("%q: %w", dirPath, err), closeDir(dirPath, dirFd))
	}

	return closeDir(dirPath, dirFd)
}

func closeDir(dir string, file File) error {
	if err := file.Close(); err != nil {
		return fmt.Errorf("close dir %q: %w", dir, err)
	}
	return nil
}

func closeTmpFile(path string, file File) error {
	if err := file.Close(); err != nil {
		return fmt.Errorf("close temp file %q: %w", path, err)
	}
	return nil
}

func removeTempFile(fs FS, path string) error {
	if err := fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove temp file %q: %w", path, err)
	}
	return nil
}
