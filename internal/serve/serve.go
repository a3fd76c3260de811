// Package serve implements the one-shot clipboard server: it takes
// ownership of PRIMARY and CLIPBOARD, answers SelectionRequest events with
// one stored clip's content (directly or via an INCR transfer for large
// payloads), and exits once both selections have been claimed by another
// application.
package serve

import (
	"fmt"
	"log/slog"

	"github.com/clipmenu/clipmenu-go/internal/incr"
	"github.com/clipmenu/clipmenu-go/internal/xproto"
)

// selectionNames are acquired in this order, mirroring clipserve.c's
// selections[2] = {XA_PRIMARY, CLIPBOARD}.
var selectionNames = [2]string{"PRIMARY", "CLIPBOARD"}

// Server owns PRIMARY and CLIPBOARD for the lifetime of one Run call,
// serving a single clip's content to whichever application requests it.
type Server struct {
	disp   *xproto.Display
	logger *slog.Logger

	win  xproto.Window
	data []byte

	targetsAtom xproto.Atom
	utf8Atom    xproto.Atom
	stringAtom  xproto.Atom
	incrAtom    xproto.Atom

	remaining int
	sends     *incr.List[incr.SendTransfer]
}

// New opens its own X connection, creates the serving window, and
// acquires PRIMARY and CLIPBOARD ownership, per clipserve.c's setup
// preamble. Reports an error if ownership of either selection cannot be
// established after 5 attempts (xproto.SetSelectionOwner).
func New(data []byte, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	disp, err := xproto.Open("")
	if err != nil {
		return nil, fmt.Errorf("serve: opening X display: %w", err)
	}

	win := disp.CreateSimpleWindow(disp.DefaultRootWindow())
	disp.StoreName(win, "clipserve")

	s := &Server{
		disp:        disp,
		logger:      logger,
		win:         win,
		data:        data,
		targetsAtom: disp.InternAtom("TARGETS"),
		utf8Atom:    disp.InternAtom("UTF8_STRING"),
		stringAtom:  disp.InternAtom("STRING"),
		incrAtom:    disp.InternAtom("INCR"),
		sends:       incr.NewList[incr.SendTransfer](),
	}

	for _, name := range selectionNames {
		sel := disp.InternAtom(name)
		if err := disp.SetSelectionOwner(sel, win); err != nil {
			_ = disp.Close()
			return nil, fmt.Errorf("serve: %w", err)
		}
	}

	s.remaining = len(selectionNames)

	return s, nil
}

// Close releases the X connection.
func (s *Server) Close() error {
	return s.disp.Close()
}

// Run answers selection requests until every selection acquired by New
// has been claimed by another client, mirroring clipserve.c's event loop.
func (s *Server) Run() error {
	for s.remaining > 0 {
		ev := s.disp.NextEvent(0)

		switch ev.Type {
		case xproto.EventSelectionRequest:
			s.handleSelectionRequest(ev)
		case xproto.EventSelectionClear:
			s.remaining--
			s.logger.Debug("selection claimed by another client", "remaining", s.remaining)
		case xproto.EventPropertyNotify:
			s.handlePropertyNotify(ev)
		default:
		}
	}

	return nil
}

// handleSelectionRequest answers one conversion request: TARGETS,
// UTF8_STRING/STRING (directly or via INCR for large payloads), or refuses
// any other target by sending back property=None, per
// clipserve.c:serve_clipboard's SelectionRequest case.
func (s *Server) handleSelectionRequest(ev xproto.Event) {
	property := ev.Property

	switch {
	case ev.Target == s.targetsAtom:
		s.sendAvailableTargets(ev.Requestor, property)

	case ev.Target == s.utf8Atom || ev.Target == s.stringAtom:
		if len(s.data) < s.disp.ChunkSize() {
			s.disp.ChangeProperty(ev.Requestor, property, ev.Target, 8, s.data)
		} else {
			s.startIncrSend(ev.Requestor, property, ev.Target)
		}

	default:
		property = 0
	}

	s.disp.SendSelectionNotify(ev.Requestor, ev.Selection, ev.Target, property)
}

// sendAvailableTargets advertises UTF8_STRING and STRING as convertible
// targets, per clipserve.c's TARGETS branch.
func (s *Server) sendAvailableTargets(requestor xproto.Window, property xproto.Atom) {
	buf := make([]byte, 8)
	putAtom32(buf[0:4], s.utf8Atom)
	putAtom32(buf[4:8], s.stringAtom)

	s.disp.ChangeProperty(requestor, property, xaAtom, 32, buf)
}

// xaAtom is XA_ATOM, the predefined type atom for a list of atoms.
const xaAtom = xproto.Atom(4)

// putAtom32 writes v's low 32 bits as one format-32 element; ChangeProperty
// divides len(data) by 4 to get the element count when format==32.
func putAtom32(b []byte, v xproto.Atom) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}

// startIncrSend begins an INCR transfer for a large selection value, per
// clipserve.c:incr_send_start.
func (s *Server) startIncrSend(requestor xproto.Window, property, target xproto.Atom) {
	sizeBuf := make([]byte, 4)
	putAtom32(sizeBuf, xproto.Atom(len(s.data)))

	s.disp.ChangeProperty(requestor, property, s.incrAtom, 32, sizeBuf)

	key := incr.Key{Requestor: uint64(requestor), Property: uint64(property)}
	_ = s.sends.Add(key, incr.NewSendTransfer(key, uint64(target), s.data))

	s.disp.SelectPropertyNotify(requestor)
}

// handlePropertyNotify advances an in-flight INCR send once the requestor
// deletes the property to signal it consumed the previous chunk, per
// clipserve.c:incr_send_chunk.
func (s *Server) handlePropertyNotify(ev xproto.Event) {
	if ev.NewValue {
		return
	}

	key := incr.Key{Requestor: uint64(ev.Window), Property: uint64(ev.Atom)}

	st, ok := s.sends.Get(key)
	if !ok {
		return
	}

	chunk := st.NextChunk(s.disp.ChunkSize())

	s.disp.ChangeProperty(ev.Window, ev.Atom, xproto.Atom(st.Target), 8, chunk)

	if len(chunk) == 0 {
		st.Finish()
		s.sends.Remove(key)
	}
}
