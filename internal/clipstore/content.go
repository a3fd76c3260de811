package clipstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/clipmenu/clipmenu-go/internal/fsx"
)

// Content is the result of [Store.ContentGet]: the raw UTF-8 bytes of one
// stored clip.
type Content struct {
	Data []byte
}

// Close is a no-op; Data is a plain heap-allocated byte slice, not a
// mapped region, so there is nothing to release. Kept as a method so
// callers can defer it uniformly regardless of how Content is backed.
func (c *Content) Close() error { return nil }

func (s *Store) contentPath(hash uint64) string {
	return filepath.Join(s.contentDir, hashHex(hash))
}

// ContentGet opens the content file named by hash and returns its bytes,
// or [ErrNotExist] if it does not exist.
func (s *Store) ContentGet(hash uint64) (*Content, error) {
	data, err := s.fsys.ReadFile(s.contentPath(hash))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: hash %s", ErrNotExist, hashHex(hash))
		}
		return nil, fmt.Errorf("clipstore: reading content file: %w", err)
	}

	return &Content{Data: data}, nil
}

// createContentFileIfAbsent writes the content file for hash atomically
// (temp name, then rename into place) unless one already exists.
func (s *Store) createContentFileIfAbsent(hash uint64, text string) error {
	path := s.contentPath(hash)

	exists, err := s.fsys.Exists(path)
	if err != nil {
		return fmt.Errorf("clipstore: checking content file: %w", err)
	}

	if exists {
		return nil
	}

	writer := fsx.NewAtomicWriter(s.fsys)

	return writer.Write(path, strings.NewReader(text), fsx.AtomicWriteOptions{
		SyncDir: true,
		Perm:    0o600,
	})
}

// hasLiveReference reports whether any slot in [0, nrSnips) still
// references hash. Must be called with the exclusive lock held and the
// mapping current.
func (s *Store) hasLiveReference(hash uint64, nrSnips uint64) bool {
	return s.hasLiveReferenceInRange(hash, 0, nrSnips)
}

// hasLiveReferenceInRange reports whether any slot in [lo, hi) still
// references hash. Must be called with the exclusive lock held and the
// mapping current.
func (s *Store) hasLiveReferenceInRange(hash uint64, lo, hi uint64) bool {
	for i := lo; i < hi; i++ {
		if s.readSlot(i).Hash == hash {
			return true
		}
	}

	return false
}

// releaseContentIfUnused deletes the content file for hash if no live slot
// references it anymore. Must be called with the
// exclusive lock held, after the slot array has already been updated to
// its post-mutation state.
func (s *Store) releaseContentIfUnused(hash uint64, nrSnips uint64) error {
	if s.hasLiveReference(hash, nrSnips) {
		return nil
	}

	return s.removeContentFile(hash)
}

// removeContentFile unconditionally deletes the content file for hash,
// tolerating its absence.
func (s *Store) removeContentFile(hash uint64) error {
	err := s.fsys.Remove(s.contentPath(hash))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clipstore: releasing content file: %w", err)
	}

	return nil
}
