// Package fsx provides the filesystem abstractions the clip store, the
// capture daemon, and the control CLI build on: an FS/File pair usable with
// a fake in tests, advisory cross-process locking, and atomic file writes.
package fsx

import (
	"io"
	"os"
)

// File is an open file descriptor. Satisfied by [os.File]; implementations
// must behave like it, including that Fd returns a descriptor usable with
// syscalls such as [syscall.Flock] until the file is closed.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the file descriptor, for syscall.Flock and mmap.
	Fd() uintptr

	Stat() (os.FileInfo, error)
	Sync() error
	Chmod(mode os.FileMode) error
}

// FS is the subset of filesystem operations the snip store, the session
// lock, and the status/content files need. Paths use OS semantics, not the
// slash-separated paths of io/fs.
type FS interface {
	Open(path string) (File, error)
	OpenFile(path string, flag int, perm os.FileMode) (File, error)
	ReadFile(path string) ([]byte, error)
	MkdirAll(path string, perm os.FileMode) error
	Stat(path string) (os.FileInfo, error)

	// Exists reports whether a file or directory exists. Returns (false, nil)
	// if not found, (false, err) on other errors.
	Exists(path string) (bool, error)

	Remove(path string) error

	// Rename moves/renames a file, atomic on the same filesystem.
	Rename(oldpath, newpath string) error
}

// Compile-time interface check.
var _ File = (*os.File)(nil)
