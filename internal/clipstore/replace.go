package clipstore

import "fmt"

// Replace locates the slot at ordinal positions from the given direction
// (0 is the first slot visited in that direction), overwrites its content
// with newText, and updates its hash, line and nr_lines in place. Its
// position in the ordering is preserved. Returns the new content hash.
// Fails with [ErrRange] if ordinal >= nr_snips.
func (s *Store) Replace(direction Direction, ordinal uint64, newText string) (uint64, error) {
	var hash uint64

	err := s.withExclusiveLock(func() error {
		h := s.header()
		if ordinal >= h.NrSnips {
			return fmt.Errorf("%w: ordinal %d, nr_snips %d", ErrRange, ordinal, h.NrSnips)
		}

		var idx uint64
		if direction == NewestFirst {
			idx = h.NrSnips - 1 - ordinal
		} else {
			idx = ordinal
		}

		old := s.readSlot(idx)
		hash = contentHash(newText)

		if err := s.createContentFileIfAbsent(hash, newText); err != nil {
			return err
		}

		line, nrLines := firstLine(newText)
		s.writeSlot(idx, Snip{Hash: hash, NrLines: uint32(nrLines), Line: line})

		if old.Hash != hash {
			if err := s.releaseContentIfUnused(old.Hash, h.NrSnips); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return hash, nil
}
