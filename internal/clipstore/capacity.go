package clipstore

import "fmt"

// ensureCapacity extends the file by snipAllocBatch slots, updates the
// header, and remaps when an insert would exceed nr_snips_alloc. Must be
// called with the exclusive lock held.
func (s *Store) ensureCapacity() error {
	h := s.header()
	if h.NrSnips < h.NrSnipsAlloc {
		return nil
	}

	newAlloc := h.NrSnipsAlloc + snipAllocBatch
	newSize := int64(headerSize) + int64(newAlloc)*int64(snipSize)

	if err := syscallFtruncate(int(s.file.Fd()), newSize); err != nil {
		return fmt.Errorf("clipstore: growing snip file: %w", err)
	}

	if err := s.remap(newSize); err != nil {
		return err
	}

	h = s.header()
	h.NrSnipsAlloc = newAlloc
	s.writeHeader(h)

	return nil
}
