package xproto

/*
#include <X11/Xlib.h>
#include <X11/extensions/Xfixes.h>

static int cm_evt_type(XEvent *e) { return e->type; }
static XSelectionRequestEvent cm_as_request(XEvent *e) { return e->xselectionrequest; }
static XSelectionEvent cm_as_notify(XEvent *e) { return e->xselection; }
static XSelectionClearEvent cm_as_clear(XEvent *e) { return e->xselectionclear; }
static XPropertyEvent cm_as_property(XEvent *e) { return e->xproperty; }
static XFixesSelectionNotifyEvent cm_as_xfixes_selection(XEvent *e) { return *(XFixesSelectionNotifyEvent *)e; }
*/
import "C"

// NextEvent blocks until the next X event arrives and decodes it. Callers
// should check Pending()/select() readiness first, per ICCCM convention
// (clipmenud.c's get_one_clip: only call NextEvent when XPending or the
// connection fd is readable).
func (d *Display) NextEvent(xfixesEventBase int) Event {
	var raw C.XEvent
	C.XNextEvent(d.dpy, &raw)

	switch int(C.cm_evt_type(&raw)) {
	case C.SelectionRequest:
		req := C.cm_as_request(&raw)
		return Event{
			Type:      EventSelectionRequest,
			Requestor: Window(req.requestor),
			Selection: Atom(req.selection),
			Target:    Atom(req.target),
			Property:  Atom(req.property),
		}

	case C.SelectionNotify:
		sel := C.cm_as_notify(&raw)
		return Event{
			Type:      EventSelectionNotify,
			Requestor: Window(sel.requestor),
			Selection: Atom(sel.selection),
			Target:    Atom(sel.target),
			Property:  Atom(sel.property),
		}

	case C.SelectionClear:
		clr := C.cm_as_clear(&raw)
		return Event{
			Type:      EventSelectionClear,
			Selection: Atom(clr.selection),
		}

	case C.PropertyNotify:
		pe := C.cm_as_property(&raw)
		return Event{
			Type:     EventPropertyNotify,
			Window:   Window(pe.window),
			Atom:     Atom(pe.atom),
			NewValue: pe.state == C.PropertyNewValue,
		}

	default:
		if xfixesEventBase > 0 && int(C.cm_evt_type(&raw)) == xfixesEventBase+C.XFixesSelectionNotify {
			se := C.cm_as_xfixes_selection(&raw)
			return Event{
				Type:      EventXFixesSelectionNotify,
				Selection: Atom(se.selection),
				Owner:     Window(se.owner),
			}
		}

		return Event{Type: EventNone}
	}
}
