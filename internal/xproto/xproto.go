// Package xproto is the thin cgo adapter around Xlib/XFixes: selection
// ownership, conversion requests, property get/set, and
// XFixesSelectionNotify-based watching, plus a handful of X-specific
// policies - window title lookup (the _NET_WM_NAME-then-WM_NAME
// fallback), an error swallow-list for expected BadWindow/BadMatch races
// against a closing window, and the INCR chunk-size formula
// (XExtendedMaxRequestSize/4).
package xproto

/*
#cgo pkg-config: x11 xfixes
#include <X11/Xlib.h>
#include <X11/Xatom.h>
#include <X11/Xproto.h>
#include <X11/Xutil.h>
#include <X11/extensions/Xfixes.h>
#include <stdio.h>
#include <stdlib.h>
#include <string.h>

static int cm_xerror_handler(Display *dpy, XErrorEvent *ee) {
	if (ee->error_code == BadWindow ||
	    (ee->request_code == X_SetInputFocus && ee->error_code == BadMatch) ||
	    (ee->request_code == X_PolyText8 && ee->error_code == BadDrawable) ||
	    (ee->request_code == X_PolyFillRectangle && ee->error_code == BadDrawable) ||
	    (ee->request_code == X_PolySegment && ee->error_code == BadDrawable) ||
	    (ee->request_code == X_ConfigureWindow && ee->error_code == BadMatch) ||
	    (ee->request_code == X_GrabButton && ee->error_code == BadAccess) ||
	    (ee->request_code == X_GrabKey && ee->error_code == BadAccess) ||
	    (ee->request_code == X_CopyArea && ee->error_code == BadDrawable)) {
		return 0;
	}
	fprintf(stderr, "X error with request code=%d, error code=%d\n",
	        ee->request_code, ee->error_code);
	exit(1);
}

static void cm_install_error_handler(void) {
	XSetErrorHandler(cm_xerror_handler);
}

static size_t cm_chunk_size(Display *dpy) {
	size_t chunk_size = XExtendedMaxRequestSize(dpy);
	if (chunk_size == 0) {
		chunk_size = XMaxRequestSize(dpy);
	}
	return chunk_size ? chunk_size / 4 : 4 * 1024;
}

static char *cm_window_title(Display *dpy, Window owner, Atom net_wm_name, Atom wm_name, Atom utf8_string) {
	Atom props[2] = { net_wm_name, wm_name };
	Atom actual_type;
	int format;
	unsigned long nr_items, bytes_after;
	unsigned char *prop = NULL;

	for (int i = 0; i < 2; i++) {
		Atom req_type = (props[i] == wm_name) ? AnyPropertyType : utf8_string;
		if (XGetWindowProperty(dpy, owner, props[i], 0, ~0L, False, req_type,
		                       &actual_type, &format, &nr_items, &bytes_after, &prop) == Success &&
		    prop) {
			return (char *)prop;
		}
	}
	return NULL;
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

// Atom and Window are X11 identifiers, passed around as plain uint64s so
// callers (internal/daemon, internal/serve, internal/incr) don't need to
// import this package's cgo types.
type Atom = uint64
type Window = uint64

// EventType enumerates the subset of X11 events the capture daemon and
// serve process care about.
type EventType int

const (
	EventNone EventType = iota
	EventSelectionNotify
	EventSelectionRequest
	EventSelectionClear
	EventPropertyNotify
	EventXFixesSelectionNotify
)

// Event is a decoded X11 event, flattened to the fields callers need.
type Event struct {
	Type EventType

	// SelectionNotify / SelectionRequest / SelectionClear / XFixesSelectionNotify
	Selection Atom
	Requestor Window
	Target    Atom
	Property  Atom
	Owner     Window

	// PropertyNotify
	Window   Window
	Atom     Atom
	NewValue bool // pe->state == PropertyNewValue (vs PropertyDelete)
}

// Display wraps an open Xlib connection.
type Display struct {
	dpy *C.Display

	atomCache map[string]Atom

	netWMName  Atom
	wmName     Atom
	utf8String Atom
}

// Open opens the X display named by name ("" selects $DISPLAY) and installs
// the error swallow-list handler (x.c:xerror_handler).
func Open(name string) (*Display, error) {
	var cName *C.char
	if name != "" {
		cName = C.CString(name)
		defer C.free(unsafe.Pointer(cName))
	}

	dpy := C.XOpenDisplay(cName)
	if dpy == nil {
		return nil, fmt.Errorf("xproto: cannot open display %q", name)
	}

	C.cm_install_error_handler()

	d := &Display{dpy: dpy, atomCache: make(map[string]Atom)}
	d.netWMName = d.InternAtom("_NET_WM_NAME")
	d.wmName = Atom(C.XA_WM_NAME)
	d.utf8String = d.InternAtom("UTF8_STRING")

	return d, nil
}

// Close closes the display connection.
func (d *Display) Close() error {
	C.XCloseDisplay(d.dpy)
	return nil
}

// DefaultRootWindow returns the root window of the default screen.
func (d *Display) DefaultRootWindow() Window {
	return Window(C.XDefaultRootWindow(d.dpy))
}

// CreateSimpleWindow creates a 1x1 unmapped window, used as the daemon's and
// serve process's event sink (clipmenud.c/clipserve.c both use
// DefaultRootWindow or a throwaway simple window for this purpose).
func (d *Display) CreateSimpleWindow(parent Window) Window {
	w := C.XCreateSimpleWindow(d.dpy, C.Window(parent), 0, 0, 1, 1, 0, 0, 0)
	return Window(w)
}

// StoreName sets a window's WM_NAME, used by the serve process to title its
// window "clipserve" so the daemon's ignore-window check can recognize and
// skip it (clipmenud.c:is_clipserve).
func (d *Display) StoreName(w Window, name string) {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	C.XStoreName(d.dpy, C.Window(w), cName)
}

// InternAtom interns name, caching the result for the lifetime of the
// Display.
func (d *Display) InternAtom(name string) Atom {
	if a, ok := d.atomCache[name]; ok {
		return a
	}

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	a := Atom(C.XInternAtom(d.dpy, cName, C.False))
	d.atomCache[name] = a

	return a
}

// ChunkSize computes the INCR chunk size (x.c:get_chunk_size).
func (d *Display) ChunkSize() int {
	return int(C.cm_chunk_size(d.dpy))
}

// WindowTitle fetches owner's _NET_WM_NAME, falling back to WM_NAME
// (x.c:get_window_title). Returns "" if neither property is set.
func (d *Display) WindowTitle(owner Window) string {
	cTitle := C.cm_window_title(d.dpy, C.Window(owner), C.Atom(d.netWMName), C.Atom(d.wmName), C.Atom(d.utf8String))
	if cTitle == nil {
		return ""
	}
	defer C.XFree(unsafe.Pointer(cTitle))

	return C.GoString(cTitle)
}

// SetSelectionOwner claims ownership of selection for window w, retrying up
// to 5 times and verifying via GetSelectionOwner per ICCCM 2.1
// (clipserve.c's serve_clipboard acquisition loop).
func (d *Display) SetSelectionOwner(selection Atom, w Window) error {
	for attempt := 0; attempt < 5; attempt++ {
		C.XSetSelectionOwner(d.dpy, C.Atom(selection), C.Window(w), C.CurrentTime)
		if d.GetSelectionOwner(selection) == w {
			return nil
		}
	}
	return fmt.Errorf("xproto: failed to set selection owner for atom %d", selection)
}

// GetSelectionOwner returns the current owner of selection, or 0 (None).
func (d *Display) GetSelectionOwner(selection Atom) Window {
	return Window(C.XGetSelectionOwner(d.dpy, C.Atom(selection)))
}

// ConvertSelection requests conversion of selection into target, to be
// delivered as property on requestor.
func (d *Display) ConvertSelection(selection, target, property Atom, requestor Window) {
	C.XConvertSelection(d.dpy, C.Atom(selection), C.Atom(target), C.Atom(property), C.Window(requestor), C.CurrentTime)
}

// SelectPropertyNotify enables PropertyNotify delivery for w.
func (d *Display) SelectPropertyNotify(w Window) {
	C.XSelectInput(d.dpy, C.Window(w), C.PropertyChangeMask)
}

// GetWindowProperty reads the named property off w and returns its raw
// bytes, the actual type atom, and the format (8/16/32), per
// XGetWindowProperty's semantics. Callers compare the returned actual type
// against the INCR atom to detect an INCR-sentinel property without a
// second round trip.
func (d *Display) GetWindowProperty(w Window, property Atom) (data []byte, actualType Atom, format int, err error) {
	var cActualType C.Atom
	var cFormat C.int
	var nItems, bytesAfter C.ulong
	var prop *C.uchar

	ret := C.XGetWindowProperty(d.dpy, C.Window(w), C.Atom(property), 0, C.long(^uint(0)>>1),
		C.False, C.AnyPropertyType, &cActualType, &cFormat, &nItems, &bytesAfter, &prop)
	if ret != C.Success {
		return nil, 0, 0, fmt.Errorf("xproto: XGetWindowProperty failed: %d", int(ret))
	}

	if prop == nil {
		return nil, Atom(cActualType), int(cFormat), nil
	}
	defer C.XFree(unsafe.Pointer(prop))

	byteLen := int(nItems) * (int(cFormat) / 8)
	if byteLen > 0 {
		data = C.GoBytes(unsafe.Pointer(prop), C.int(byteLen))
	}

	return data, Atom(cActualType), int(cFormat), nil
}

// ChangeProperty replaces property on w with data, using the given format
// (8, 16, or 32 bits per element, per Xlib convention).
func (d *Display) ChangeProperty(w Window, property, typ Atom, format int, data []byte) {
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}

	nElements := len(data)
	if format != 8 {
		nElements = len(data) / (format / 8)
	}

	C.XChangeProperty(d.dpy, C.Window(w), C.Atom(property), C.Atom(typ), C.int(format),
		C.PropModeReplace, (*C.uchar)(ptr), C.int(nElements))
}

// DeleteProperty removes property from w, used to signal INCR chunk
// readiness on both the send and receive sides.
func (d *Display) DeleteProperty(w Window, property Atom) {
	C.XDeleteProperty(d.dpy, C.Window(w), C.Atom(property))
}

// SendSelectionNotify sends a synthetic SelectionNotify to requestor,
// completing a SelectionRequest.
func (d *Display) SendSelectionNotify(requestor Window, selection, target, property Atom) {
	var ev C.XSelectionEvent
	ev._type = C.SelectionNotify
	ev.display = d.dpy
	ev.requestor = C.Window(requestor)
	ev.selection = C.Atom(selection)
	ev.target = C.Atom(target)
	ev.property = C.Atom(property)
	ev.time = C.CurrentTime

	C.XSendEvent(d.dpy, C.Window(requestor), C.False, 0, (*C.XEvent)(unsafe.Pointer(&ev)))
}

// QueryXFixesExtension verifies XFixes is available, returning its event
// base for computing XFixesSelectionNotify's numeric event type.
func (d *Display) QueryXFixesExtension() (eventBase int, ok bool) {
	var evBase, errBase C.int
	if C.XFixesQueryExtension(d.dpy, &evBase, &errBase) == 0 {
		return 0, false
	}
	return int(evBase), true
}

// SelectXFixesSelectionInput watches selection for ownership changes,
// delivered as XFixesSelectionNotify events to w.
func (d *Display) SelectXFixesSelectionInput(w Window, selection Atom) {
	C.XFixesSelectSelectionInput(d.dpy, C.Window(w), C.Atom(selection), C.XFixesSetSelectionOwnerNotifyMask)
}

// Pending reports whether an X event is queued without blocking.
func (d *Display) Pending() bool {
	return C.XPending(d.dpy) != 0
}

// ConnectionNumber returns the Xlib connection's file descriptor, for
// multiplexing with select(2)/signalfd alongside signal delivery.
func (d *Display) ConnectionNumber() int {
	return int(C.XConnectionNumber(d.dpy))
}

// Flush flushes buffered requests to the server.
func (d *Display) Flush() {
	C.XFlush(d.dpy)
}
