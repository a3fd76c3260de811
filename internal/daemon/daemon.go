package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"golang.org/x/sys/unix"

	"github.com/clipmenu/clipmenu-go/internal/clipstore"
	"github.com/clipmenu/clipmenu-go/internal/config"
	"github.com/clipmenu/clipmenu-go/internal/fsx"
	"github.com/clipmenu/clipmenu-go/internal/incr"
	"github.com/clipmenu/clipmenu-go/internal/xproto"
)

// selection atom names the daemon watches.
const (
	selPrimary   = "PRIMARY"
	selClipboard = "CLIPBOARD"
)

// Daemon runs the capture loop: it watches PRIMARY and CLIPBOARD for
// changes via XFixes, captures salient text into the clip store, and
// answers enable/disable signals.
type Daemon struct {
	disp   *xproto.Display
	store  *clipstore.Store
	fsys   fsx.FS
	cfg    config.Config
	paths  config.Paths
	logger *slog.Logger

	xfixesEventBase int
	ownWindow       xproto.Window

	enabled bool
	merge   PartialMergeState

	sessionLock *fsx.Lock

	// pendingIncr tracks in-progress INCR receives keyed by the
	// (requestor, property) our own conversion requests used - here the
	// requestor is always ownWindow, so the key degenerates to the
	// property atom, but List's Key shape is reused for symmetry with
	// internal/serve.
	pendingIncr *incr.List[incr.ReceiveTransfer]
}

// Options configures [New].
type Options struct {
	Paths  config.Paths
	Config config.Config
	FS     fsx.FS
	Logger *slog.Logger
}

// New opens the clip store, the X11 connection, and acquires the
// single-daemon session lock. The caller must call Close.
func New(opts Options) (*Daemon, error) {
	fsys := opts.FS
	if fsys == nil {
		fsys = fsx.NewReal()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	locker := fsx.NewLocker(fsys)

	lock, err := locker.TryLock(opts.Paths.SessionLockPath)
	if err != nil {
		return nil, fmt.Errorf("daemon: another instance is already running: %w", err)
	}

	store, err := clipstore.Open(clipstore.Options{
		SnipPath:   opts.Paths.LineCachePath,
		ContentDir: opts.Paths.ContentDir,
		FS:         fsys,
	})
	if err != nil {
		_ = lock.Close()
		return nil, fmt.Errorf("daemon: opening clip store: %w", err)
	}

	disp, err := xproto.Open("")
	if err != nil {
		_ = store.Close()
		_ = lock.Close()
		return nil, fmt.Errorf("daemon: opening X display: %w", err)
	}

	eventBase, ok := disp.QueryXFixesExtension()
	if !ok {
		_ = disp.Close()
		_ = store.Close()
		_ = lock.Close()
		return nil, fmt.Errorf("daemon: XFixes extension is not available")
	}

	root := disp.DefaultRootWindow()
	ownWindow := disp.CreateSimpleWindow(root)
	disp.StoreName(ownWindow, "clipmenud")

	d := &Daemon{
		disp:            disp,
		store:           store,
		fsys:            fsys,
		cfg:             opts.Config,
		paths:           opts.Paths,
		logger:          logger,
		xfixesEventBase: eventBase,
		ownWindow:       ownWindow,
		enabled:         true,
		sessionLock:     lock,
		pendingIncr:     incr.NewList[incr.ReceiveTransfer](),
	}

	if err := d.writeEnabled(true); err != nil {
		_ = d.Close()
		return nil, err
	}

	d.setupWatches()

	return d, nil
}

// setupWatches registers XFixes selection-change notifications for PRIMARY
// and CLIPBOARD, per clipmenud.c:setup_watches.
func (d *Daemon) setupWatches() {
	primary := d.disp.InternAtom(selPrimary)
	clipboard := d.disp.InternAtom(selClipboard)

	d.disp.SelectXFixesSelectionInput(d.ownWindow, primary)
	d.disp.SelectXFixesSelectionInput(d.ownWindow, clipboard)
}

// Close releases the X connection, the clip store mapping, and the
// session lock, in that order.
func (d *Daemon) Close() error {
	var firstErr error

	if d.disp != nil {
		if err := d.disp.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if d.store != nil {
		if err := d.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if d.sessionLock != nil {
		if err := d.sessionLock.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// Run drives the event loop until ctx is cancelled, mirroring
// clipmenud.c:run's select() over the X connection fd and the signalfd.
func (d *Daemon) Run(ctx context.Context) error {
	sigfd, err := d.openSignalfd()
	if err != nil {
		return fmt.Errorf("daemon: opening signalfd: %w", err)
	}
	defer unix.Close(sigfd)

	xfd := d.disp.ConnectionNumber()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if d.disp.Pending() {
			d.handleXEvent()
			continue
		}

		ready, err := waitReadable(ctx, xfd, sigfd, 250*time.Millisecond)
		if err != nil {
			return err
		}

		switch ready {
		case xfd:
			d.handleXEvent()
		case sigfd:
			if err := d.handleSignalfdEvent(sigfd); err != nil {
				d.logger.Error("handling signal", "error", err)
			}
		}
	}
}

// openSignalfd creates a signalfd watching SIGUSR1/SIGUSR2, per
// clipmenud.c's sigprocmask+signalfd setup. Go's os/signal channel API
// can't be multiplexed into a select() alongside a raw X11 connection fd,
// so this uses golang.org/x/sys/unix's signalfd directly, matching the
// original's fd-based event loop shape.
func (d *Daemon) openSignalfd() (int, error) {
	var set unix.Sigset_t
	set.Val[0] = 1<<(unix.SIGUSR1-1) | 1<<(unix.SIGUSR2-1)

	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, nil); err != nil {
		return 0, fmt.Errorf("blocking signals: %w", err)
	}

	fd, err := unix.Signalfd(-1, &set, 0)
	if err != nil {
		return 0, fmt.Errorf("signalfd: %w", err)
	}

	return fd, nil
}

// handleSignalfdEvent reads one signalfd_siginfo and toggles the enabled
// state, per clipmenud.c:handle_signalfd_event.
func (d *Daemon) handleSignalfdEvent(sigfd int) error {
	signo, err := readSignalfdSigno(sigfd)
	if err != nil {
		return fmt.Errorf("reading signalfd: %w", err)
	}

	switch signo {
	case uint32(unix.SIGUSR1):
		return d.writeEnabled(false)
	case uint32(unix.SIGUSR2):
		return d.writeEnabled(true)
	}

	return nil
}

// writeEnabled records the enable/disable state and persists the single
// ASCII status byte clipctl reads.
func (d *Daemon) writeEnabled(enabled bool) error {
	d.enabled = enabled

	b := byte('0')
	if enabled {
		b = '1'
	}

	return os.WriteFile(d.paths.EnabledPath, []byte{b}, 0o600)
}

// handleXEvent decodes and dispatches one pending X event, per
// clipmenud.c:handle_x11_event.
func (d *Daemon) handleXEvent() {
	ev := d.disp.NextEvent(d.xfixesEventBase)

	switch ev.Type {
	case xproto.EventXFixesSelectionNotify:
		d.handleSelectionNotify(ev)
	case xproto.EventPropertyNotify:
		d.handlePropertyNotify(ev)
	default:
	}
}

// handleSelectionNotify reacts to a selection-owner change by requesting
// its contents, per clipmenud.c:handle_xfixes_selection_notify. Capture is
// skipped while disabled.
func (d *Daemon) handleSelectionNotify(ev xproto.Event) {
	if !d.enabled {
		return
	}

	if ev.Owner == 0 {
		return
	}

	title := d.disp.WindowTitle(ev.Owner)
	if IsClipserveWindow(title) || IsIgnoredWindow(title, d.cfg.IgnoreWindowRegexps) {
		return
	}

	utf8 := d.disp.InternAtom("UTF8_STRING")
	prop := d.disp.InternAtom("CLIPMENU_SELECTION")

	d.disp.SelectPropertyNotify(d.ownWindow)
	d.disp.ConvertSelection(ev.Selection, utf8, prop, d.ownWindow)
	d.disp.Flush()
}

// handlePropertyNotify drives an INCR receive forward, or completes a
// direct (non-INCR) transfer, per clipmenud.c:handle_property_notify.
func (d *Daemon) handlePropertyNotify(ev xproto.Event) {
	if ev.Window != d.ownWindow || !ev.NewValue {
		return
	}

	prop := ev.Atom

	if rt, ok := d.pendingIncr.Get(incr.Key{Requestor: uint64(d.ownWindow), Property: uint64(prop)}); ok {
		data, _, _, err := d.disp.GetWindowProperty(d.ownWindow, prop)
		if err != nil {
			d.logger.Error("reading INCR chunk", "error", err)
			return
		}

		d.disp.DeleteProperty(d.ownWindow, prop)

		rt.AppendChunk(data)
		if rt.State() == incr.Complete {
			d.pendingIncr.Remove(incr.Key{Requestor: uint64(d.ownWindow), Property: uint64(prop)})
			d.captureText(string(rt.Bytes()))
		}
		return
	}

	data, typ, _, err := d.disp.GetWindowProperty(d.ownWindow, prop)
	if err != nil {
		d.logger.Error("reading selection property", "error", err)
		return
	}

	incrAtom := d.disp.InternAtom("INCR")
	if typ == incrAtom {
		d.disp.DeleteProperty(d.ownWindow, prop)
		key := incr.Key{Requestor: uint64(d.ownWindow), Property: uint64(prop)}
		_ = d.pendingIncr.Add(key, incr.NewReceiveTransfer(key))
		return
	}

	d.disp.DeleteProperty(d.ownWindow, prop)
	d.captureText(string(data))
}

// captureText applies the salience, partial-merge, and dedup rules and
// stores text, then re-serves it via a spawned clipserve process if
// OwnClipboard is set, per clipmenud.c:store_clip + is_clipserve wiring.
func (d *Daemon) captureText(text string) {
	if !IsSalientText(text) {
		return
	}

	now := time.Now()
	maxAge := time.Duration(d.cfg.PartialMaxSecs) * time.Second

	var hash uint64
	var err error

	if d.merge.ShouldMerge(text, now, maxAge) {
		hash, err = d.store.Replace(clipstore.NewestFirst, 0, text)
		if err != nil {
			d.logger.Error("replacing partial clip", "error", err)
			return
		}
	} else {
		policy := clipstore.KeepAll
		if d.cfg.Deduplicate {
			policy = clipstore.KeepLast
		}

		hash, err = d.store.Add(text, policy)
		if err != nil {
			d.logger.Error("storing clip", "error", err)
			return
		}
	}

	d.merge.Record(text, now)

	if err := d.maybeTrim(); err != nil {
		d.logger.Error("trimming clip store", "error", err)
	}

	if d.cfg.OwnClipboard {
		d.spawnServe(hash)
	}
}

// maybeTrim implements clipmenud.c:maybe_trim's hysteresis: only trim once
// the store has grown past MaxClips+MaxClipsBatch, back down to MaxClips.
func (d *Daemon) maybeTrim() error {
	n, err := d.store.Len()
	if err != nil {
		return err
	}

	threshold := d.cfg.MaxClips + d.cfg.MaxClipsBatch
	if n <= threshold {
		return nil
	}

	return d.store.Trim(clipstore.NewestFirst, uint64(d.cfg.MaxClips))
}

// spawnServe launches the serve process to own CLIPBOARD with the clip
// named by hash, mirroring clipmenud.c's fork+exec of clipserve with the
// hash as its sole argument.
func (d *Daemon) spawnServe(hash uint64) {
	cmd := exec.Command("clipserve", fmt.Sprintf("%016x", hash))

	if err := cmd.Start(); err != nil {
		d.logger.Error("spawning clipserve", "error", err)
		return
	}

	go func() { _ = cmd.Wait() }()
}
