package clipstore

// RemoveAction is the set of flags a [RemovePredicate] may return:
// ActionRemove deletes the current slot, ActionStop ends iteration after
// processing it. Both may be set on the same slot, in which case it is
// removed and then iteration ends.
type RemoveAction uint8

const (
	ActionNone   RemoveAction = 0
	ActionRemove RemoveAction = 1 << 0
	ActionStop   RemoveAction = 1 << 1
)

// RemovePredicate is invoked once per visited slot during [Store.Remove].
type RemovePredicate func(hash uint64, line string) RemoveAction

// Remove, under the exclusive write lock, iterates slots in direction
// order, removing any for which predicate
// returns ActionRemove (swap-shift, preserving the order of the remaining
// slots) and releasing content files no longer referenced. Returns the
// number of slots removed.
func (s *Store) Remove(direction Direction, predicate RemovePredicate) (int, error) {
	removed := 0

	err := s.withExclusiveLock(func() error {
		h := s.header()
		nrSnips := h.NrSnips

		if nrSnips == 0 {
			return nil
		}

		var cur int64
		if direction == NewestFirst {
			cur = int64(nrSnips) - 1
		} else {
			cur = 0
		}

		for cur >= 0 && uint64(cur) < nrSnips {
			snip := s.readSlot(uint64(cur))
			action := predicate(snip.Hash, snip.Line)

			if action&ActionRemove != 0 {
				s.shiftLeft(uint64(cur), nrSnips)
				nrSnips--
				removed++

				if err := s.releaseContentIfUnused(snip.Hash, nrSnips); err != nil {
					return err
				}

				if direction == OldestFirst {
					// The slot that shifted into cur hasn't been visited yet.
				} else {
					cur--
				}
			} else if direction == NewestFirst {
				cur--
			} else {
				cur++
			}

			if action&ActionStop != 0 {
				break
			}
		}

		h.NrSnips = nrSnips
		s.writeHeader(h)

		return nil
	})

	return removed, err
}

// shiftLeft removes the slot at pos by shifting slots pos+1..nrSnips-1 left
// by one, preserving order. Does not update nr_snips; the caller does that.
func (s *Store) shiftLeft(pos, nrSnips uint64) {
	for i := pos; i < nrSnips-1; i++ {
		s.writeSlot(i, s.readSlot(i+1))
	}
}
