package clipstore

// Cursor walks a Store's slots, stateless except for its own position,
// usable only while its [RefGuard] is held.
//
// On first Next(), the cursor positions at the newest slot (NewestFirst)
// or oldest slot (OldestFirst). On exhaustion, Next() returns false and the
// cursor is left positioned at the last yielded slot, so callers may read
// it once more via Snip() after the loop.
type Cursor struct {
	guard     *RefGuard
	direction Direction
	started   bool
	exhausted bool
	pos       int64 // current slot index; meaningless until started
}

// Iterate returns a new [Cursor] over guard's store in the given direction.
// guard must remain open for the cursor's entire use.
func (g *RefGuard) Iterate(direction Direction) *Cursor {
	return &Cursor{guard: g, direction: direction}
}

// Next advances the cursor and reports whether a slot is available.
func (c *Cursor) Next() bool {
	if c.exhausted {
		return false
	}

	s := c.guard.store

	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.header()

	if h.NrSnips == 0 {
		c.exhausted = true
		return false
	}

	if !c.started {
		c.started = true
		if c.direction == NewestFirst {
			c.pos = int64(h.NrSnips) - 1
		} else {
			c.pos = 0
		}
		return true
	}

	if c.direction == NewestFirst {
		c.pos--
		if c.pos < 0 {
			c.pos = 0
			c.exhausted = true
			return false
		}
	} else {
		c.pos++
		if c.pos >= int64(h.NrSnips) {
			c.pos = int64(h.NrSnips) - 1
			c.exhausted = true
			return false
		}
	}

	return true
}

// Snip returns the slot at the cursor's current position. Valid after a
// Next() that returned true, and once more after the Next() that returned
// false (the cursor stays parked on the last yielded slot).
func (c *Cursor) Snip() Snip {
	s := c.guard.store

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readSlot(uint64(c.pos))
}

// Collect drains the cursor into a slice, in iteration order. Every caller
// in this repo wants the full ordered list rather than the stateful
// cursor, so this is the common path; Iterate remains available for
// callers that want to stop early.
func (g *RefGuard) Collect(direction Direction) []Snip {
	cur := g.Iterate(direction)

	var out []Snip
	for cur.Next() {
		out = append(out, cur.Snip())
	}

	return out
}
