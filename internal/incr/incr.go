// Package incr implements the X11 ICCCM INCR transfer protocol's state
// machine, decoupled from any particular X11 binding so it can be driven
// by internal/xproto's event loop on either side of a transfer: a sender
// stages data and hands it out in property-sized chunks as the requestor
// deletes each one, while a receiver accumulates chunks until a zero-length
// property marks the end.
package incr

import "fmt"

// State is a transfer's lifecycle stage.
type State int

const (
	Starting State = iota
	Streaming
	Complete
	Aborted
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Streaming:
		return "streaming"
	case Complete:
		return "complete"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Key identifies one transfer: the requestor window and the property the
// data is staged through. Mirrors struct incr_transfer's
// (requestor, property) identity used to find a transfer in the active list.
type Key struct {
	Requestor uint64 // X11 Window
	Property  uint64 // X11 Atom
}

// SendTransfer is the sender side's state for one INCR transfer
// (clipserve.c's incr_send_start/incr_send_chunk/incr_send_finish).
type SendTransfer struct {
	Key
	Target uint64 // X11 Atom (the requested conversion target)

	data  []byte
	sent  int
	state State
}

// NewSendTransfer starts a new outbound transfer for data. The caller is
// responsible for having already written the INCR sentinel property and
// selected PropertyNotify input on requestor before driving this.
func NewSendTransfer(key Key, target uint64, data []byte) *SendTransfer {
	return &SendTransfer{Key: key, Target: target, data: data, state: Starting}
}

// State reports the transfer's current lifecycle stage.
func (t *SendTransfer) State() State { return t.state }

// NextChunk returns up to chunkSize bytes of the remaining payload, per
// clipserve.c's incr_send_chunk: called each time the requestor deletes the
// property, signalling readiness for the next chunk. A zero-length result
// means the transfer is complete (the caller must write an empty property to
// signal EOF and then call Finish).
func (t *SendTransfer) NextChunk(chunkSize int) []byte {
	if t.state == Complete || t.state == Aborted {
		return nil
	}

	t.state = Streaming

	remaining := len(t.data) - t.sent
	if remaining <= 0 {
		return nil
	}

	n := remaining
	if n > chunkSize {
		n = chunkSize
	}

	chunk := t.data[t.sent : t.sent+n]
	t.sent += n

	return chunk
}

// Finish marks the transfer complete, per clipserve.c's incr_send_finish.
func (t *SendTransfer) Finish() {
	t.state = Complete
}

// ReceiveTransfer is the receiver side's state for one INCR transfer
// (clipmenud.c's incr_receive_start/incr_receive_data/incr_receive_finish).
type ReceiveTransfer struct {
	Key

	buf   []byte
	state State
}

// incrDataStartBytes mirrors clipmenud.c's INCR_DATA_START_BYTES initial
// buffer size.
const incrDataStartBytes = 1024 * 1024

// NewReceiveTransfer acknowledges the start of an inbound transfer. The
// caller must delete the sentinel property on the watched window immediately
// after, to signal readiness for the first chunk (XDeleteProperty in the
// original).
func NewReceiveTransfer(key Key) *ReceiveTransfer {
	return &ReceiveTransfer{
		Key:   key,
		buf:   make([]byte, 0, incrDataStartBytes),
		state: Starting,
	}
}

// State reports the transfer's current lifecycle stage.
func (t *ReceiveTransfer) State() State { return t.state }

// AppendChunk appends one PropertyNewValue chunk. An empty chunk signals
// end-of-transfer (clipmenud.c's incr_receive_data: chunk_size == 0 calls
// incr_receive_finish) and moves the transfer to Complete; the accumulated
// bytes are then available via Bytes. The caller must delete the sentinel
// property after each non-final chunk to request the next one.
func (t *ReceiveTransfer) AppendChunk(chunk []byte) {
	if t.state == Complete || t.state == Aborted {
		return
	}

	if len(chunk) == 0 {
		t.state = Complete
		return
	}

	t.state = Streaming
	t.buf = append(t.buf, chunk...)
}

// Bytes returns the data accumulated so far. Only meaningful to treat as
// the final payload once State() == Complete.
func (t *ReceiveTransfer) Bytes() []byte {
	return t.buf
}

// Abort marks the transfer as aborted, e.g. because the requestor window
// was destroyed mid-transfer.
func (t *ReceiveTransfer) Abort() {
	t.state = Aborted
}

// List is an unordered collection of in-flight transfers keyed by (requestor,
// property), replacing struct incr_transfer's intrusive doubly-linked list
// (it_add/it_remove) with a Go map; the traversal order those functions
// existed for (walking all active transfers to find one matching an event)
// has no ordering requirement, only lookup-by-key.
type List[T any] struct {
	items map[Key]*T
}

// NewList returns an empty transfer list.
func NewList[T any]() *List[T] {
	return &List[T]{items: make(map[Key]*T)}
}

// Add registers a transfer under its key. Returns an error if the key is
// already in use (a protocol violation: the requestor started a second
// transfer through the same property before the first finished).
func (l *List[T]) Add(key Key, t *T) error {
	if _, exists := l.items[key]; exists {
		return fmt.Errorf("incr: transfer already in progress for %+v", key)
	}
	l.items[key] = t
	return nil
}

// Get looks up the transfer for key, if any.
func (l *List[T]) Get(key Key) (*T, bool) {
	t, ok := l.items[key]
	return t, ok
}

// Remove deletes the transfer for key.
func (l *List[T]) Remove(key Key) {
	delete(l.items, key)
}

// Len reports the number of in-flight transfers.
func (l *List[T]) Len() int {
	return len(l.items)
}
