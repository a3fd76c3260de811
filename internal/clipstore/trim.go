package clipstore

// Trim removes all but the keepN newest slots (NewestFirst) or oldest
// slots (OldestFirst). A no-op if nr_snips <= keepN.
func (s *Store) Trim(direction Direction, keepN uint64) error {
	return s.withExclusiveLock(func() error {
		h := s.header()
		nrSnips := h.NrSnips

		if nrSnips <= keepN {
			return nil
		}

		nrRemove := nrSnips - keepN

		var dropLo, dropHi uint64 // [dropLo, dropHi) is the range of slots to drop
		var keepLo, keepHi uint64 // [keepLo, keepHi) is the range of slots kept
		if direction == NewestFirst {
			// Keep the newest keepN, i.e. the highest indices; drop the
			// oldest nrRemove, at the low end.
			dropLo, dropHi = 0, nrRemove
			keepLo, keepHi = nrRemove, nrSnips
		} else {
			// Keep the oldest keepN, at the low end; drop the newest
			// nrRemove, at the high end.
			dropLo, dropHi = keepN, nrSnips
			keepLo, keepHi = 0, keepN
		}

		// A hash may occur in more than one slot under KeepAll; only the
		// kept range determines whether its content file stays referenced.
		for i := dropLo; i < dropHi; i++ {
			hash := s.readSlot(i).Hash
			if s.hasLiveReferenceInRange(hash, keepLo, keepHi) {
				continue
			}
			if err := s.removeContentFile(hash); err != nil {
				return err
			}
		}

		if direction == NewestFirst {
			// Shift the kept slots [nrRemove, nrSnips) down to [0, keepN).
			for i := uint64(0); i < keepN; i++ {
				s.writeSlot(i, s.readSlot(nrRemove+i))
			}
		}
		// For OldestFirst the kept slots already occupy [0, keepN); nothing
		// to shift.

		h.NrSnips = keepN
		s.writeHeader(h)

		return nil
	})
}
