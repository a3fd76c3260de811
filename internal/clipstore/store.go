// Package clipstore implements the persistent, concurrently-shared clip
// store: a compact, crash-safe, memory-mapped index of captured clipboard
// snippets keyed by content hash.
//
// Basic usage:
//
//	store, err := clipstore.Open(clipstore.Options{
//		SnipPath:   filepath.Join(cacheDir, "line_cache"),
//		ContentDir: filepath.Join(cacheDir, "content"),
//	})
//	if err != nil {
//		return err
//	}
//	defer store.Close()
//
//	hash, err := store.Add("clipboard text", clipstore.KeepAll)
//
// Concurrency: every mutating method (Add, Remove, Trim, Replace) acquires
// an exclusive advisory file lock on the snip file for the duration of the
// call, so multiple processes sharing the same SnipPath/ContentDir
// cooperate safely. Iteration requires a [RefGuard] held for the
// iteration's lifetime; do not call a mutating method on the same Store
// while one of its RefGuards is outstanding in the same process - flock is
// per open-file-description, not per-process, so a shared lock held by one
// fd blocks an exclusive lock requested via another fd even within a
// single process.
package clipstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/clipmenu/clipmenu-go/internal/fsx"
)

// DedupPolicy controls how Add handles a content value that already has a
// live slot.
type DedupPolicy int

const (
	// KeepAll always appends a new slot, reusing the content file if one
	// already exists for the hash.
	KeepAll DedupPolicy = iota

	// KeepLast moves an existing live slot with the same hash to the
	// newest position instead of inserting a new one.
	KeepLast
)

// Direction selects iteration/removal/trim order.
type Direction int

const (
	// OldestFirst walks/counts from index 0 (oldest) toward nr_snips-1.
	OldestFirst Direction = iota

	// NewestFirst walks/counts from nr_snips-1 (newest) toward 0.
	NewestFirst
)

// Snip is one decoded slot: metadata pointing at a content file.
type Snip struct {
	Hash    uint64
	NrLines uint32
	Line    string
}

// Options configures [Open].
type Options struct {
	// SnipPath is the path to the snip index file (the mmap target).
	SnipPath string

	// ContentDir is the path to the content directory. Created if absent.
	ContentDir string

	// FS is the filesystem abstraction to use. Defaults to [fsx.NewReal].
	FS fsx.FS
}

// Store binds to a snip file and a content directory and holds a writable
// memory mapping of the snip file.
type Store struct {
	mu sync.Mutex

	fsys       fsx.FS
	locker     *fsx.Locker
	snipPath   string
	lockPath   string
	contentDir string

	file   fsx.File
	data   []byte
	closed bool
}

// Open maps the snip file at opts.SnipPath, creating it if absent. An
// empty file is extended to headerSize and zero-initialized; otherwise its
// size must be headerSize + N*snipSize for some N, or Open fails with
// [ErrInvalid].
func Open(opts Options) (*Store, error) {
	if opts.SnipPath == "" {
		return nil, fmt.Errorf("%w: SnipPath is required", ErrInvalid)
	}

	fsys := opts.FS
	if fsys == nil {
		fsys = fsx.NewReal()
	}

	if opts.ContentDir != "" {
		if err := fsys.MkdirAll(opts.ContentDir, 0o700); err != nil {
			return nil, fmt.Errorf("clipstore: creating content dir: %w", err)
		}
	}

	if dir := filepath.Dir(opts.SnipPath); dir != "." {
		if err := fsys.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("clipstore: creating snip dir: %w", err)
		}
	}

	file, err := fsys.OpenFile(opts.SnipPath, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("clipstore: opening snip file: %w", err)
	}

	s := &Store{
		fsys:       fsys,
		locker:     fsx.NewLocker(fsys),
		snipPath:   opts.SnipPath,
		lockPath:   opts.SnipPath,
		contentDir: opts.ContentDir,
		file:       file,
	}

	if err := s.initMapping(); err != nil {
		_ = file.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initMapping() error {
	info, err := s.file.Stat()
	if err != nil {
		return fmt.Errorf("clipstore: stat snip file: %w", err)
	}

	size := info.Size()

	switch {
	case size == 0:
		if err := syscallFtruncate(int(s.file.Fd()), headerSize); err != nil {
			return fmt.Errorf("clipstore: truncating new snip file: %w", err)
		}

		if err := s.mmap(headerSize); err != nil {
			return err
		}

		copy(s.data[:headerSize], encodeHeader(newHeader()))

		return nil

	case size < headerSize || (size-headerSize)%snipSize != 0:
		return fmt.Errorf("%w: snip file size %d is not header_size + N*snip_size", ErrInvalid, size)

	default:
		if err := s.mmap(size); err != nil {
			return err
		}

		h := decodeHeader(s.data[:headerSize])

		if string(h.Magic[:]) != clp1Magic {
			return fmt.Errorf("%w: bad magic", ErrInvalid)
		}

		if h.Version != clp1Version {
			return fmt.Errorf("%w: unsupported version %d", ErrInvalid, h.Version)
		}

		if !validateHeaderCRC(s.data[:headerSize]) {
			return fmt.Errorf("%w: header checksum mismatch", ErrInvalid)
		}

		wantSize := int64(headerSize) + int64(h.NrSnipsAlloc)*int64(snipSize)
		if wantSize != size {
			return fmt.Errorf("%w: file size %d does not match header (want %d)", ErrInvalid, size, wantSize)
		}

		if h.NrSnips > h.NrSnipsAlloc {
			return fmt.Errorf("%w: nr_snips %d exceeds nr_snips_alloc %d", ErrInvalid, h.NrSnips, h.NrSnipsAlloc)
		}

		return nil
	}
}

func (s *Store) mmap(size int64) error {
	data, err := syscall.Mmap(int(s.file.Fd()), 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("clipstore: mmap: %w", err)
	}

	s.data = data

	return nil
}

func (s *Store) remap(newSize int64) error {
	if err := syscall.Munmap(s.data); err != nil {
		return fmt.Errorf("clipstore: munmap: %w", err)
	}

	s.data = nil

	return s.mmap(newSize)
}

// Close unmaps the file and releases descriptors. Idempotent; the backing
// files persist on disk.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true

	var err error
	if s.data != nil {
		err = syscall.Munmap(s.data)
		s.data = nil
	}

	if cerr := s.file.Close(); cerr != nil && err == nil {
		err = cerr
	}

	return err
}

// RefGuard is a scoped holder of the snip file's shared read lock,
// required for [Store.Iterate].
type RefGuard struct {
	store *Store
	lock  *fsx.Lock
}

// Ref acquires a shared read lock on the snip file, blocking new writers
// until the guard is released via [RefGuard.Close].
func (s *Store) Ref() (*RefGuard, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()

	if closed {
		return nil, ErrClosed
	}

	lock, err := s.locker.RLock(s.lockPath)
	if err != nil {
		return nil, fmt.Errorf("clipstore: acquiring ref guard: %w", err)
	}

	return &RefGuard{store: s, lock: lock}, nil
}

// Close releases the shared lock held by the guard.
func (g *RefGuard) Close() error {
	return g.lock.Close()
}

// Len returns nr_snips under a shared lock.
func (s *Store) Len() (int, error) {
	guard, err := s.Ref()
	if err != nil {
		return 0, err
	}
	defer guard.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	h := decodeHeader(s.data[:headerSize])

	return int(h.NrSnips), nil
}

func (s *Store) header() clp1Header {
	return decodeHeader(s.data[:headerSize])
}

func (s *Store) writeHeader(h clp1Header) {
	copy(s.data[:headerSize], encodeHeader(h))
}

func (s *Store) slotBuf(i uint64) []byte {
	off := headerSize + int(i)*snipSize
	return s.data[off : off+snipSize]
}

func (s *Store) readSlot(i uint64) Snip {
	hash, nrLines, line := decodeSlot(s.slotBuf(i))
	return Snip{Hash: hash, NrLines: nrLines, Line: line}
}

func (s *Store) writeSlot(i uint64, snip Snip) {
	copy(s.slotBuf(i), encodeSlot(snip.Hash, snip.NrLines, snip.Line))
}

// withExclusiveLock runs fn while holding the snip file's exclusive lock
// and the in-process mutex, so every store mutation is serialized both
// across processes and across goroutines sharing this Store.
func (s *Store) withExclusiveLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	lock, err := s.locker.Lock(s.lockPath)
	if err != nil {
		return fmt.Errorf("clipstore: acquiring write lock: %w", err)
	}
	defer lock.Close()

	return fn()
}

func syscallFtruncate(fd int, size int64) error {
	return syscall.Ftruncate(fd, size)
}
