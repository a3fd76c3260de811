package clipstore

// Add persists text under the exclusive write lock, applying the dedup
// policy, and returns its content hash.
func (s *Store) Add(text string, policy DedupPolicy) (uint64, error) {
	hash := contentHash(text)

	err := s.withExclusiveLock(func() error {
		h := s.header()

		if policy == KeepLast {
			moved, err := s.rotateExistingToNewest(hash, h.NrSnips)
			if err != nil {
				return err
			}
			if moved {
				return nil
			}
		}

		return s.appendSlot(hash, text)
	})
	if err != nil {
		return 0, err
	}

	return hash, nil
}

// rotateExistingToNewest implements the KeepLast dedup branch: if a live
// slot with hash exists at position i < nrSnips-1, shift slots
// i+1..nrSnips-1 left by one and write the moved slot at nrSnips-1.
// Reports whether a slot was found (and therefore no append should happen).
func (s *Store) rotateExistingToNewest(hash uint64, nrSnips uint64) (bool, error) {
	var idx uint64
	found := false

	for i := uint64(0); i < nrSnips; i++ {
		if s.readSlot(i).Hash == hash {
			idx = i
			found = true
			break
		}
	}

	if !found {
		return false, nil
	}

	if idx == nrSnips-1 {
		// Already newest; nothing to shift.
		return true, nil
	}

	moved := s.readSlot(idx)
	for i := idx; i < nrSnips-1; i++ {
		s.writeSlot(i, s.readSlot(i+1))
	}
	s.writeSlot(nrSnips-1, moved)

	return true, nil
}

// appendSlot grows capacity if needed, creates the content file if
// absent, and populates the new newest slot.
func (s *Store) appendSlot(hash uint64, text string) error {
	if err := s.ensureCapacity(); err != nil {
		return err
	}

	if err := s.createContentFileIfAbsent(hash, text); err != nil {
		return err
	}

	line, nrLines := firstLine(text)

	h := s.header()
	s.writeSlot(h.NrSnips, Snip{Hash: hash, NrLines: uint32(nrLines), Line: line})
	h.NrSnips++
	s.writeHeader(h)

	return nil
}
