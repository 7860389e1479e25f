package ax

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xwindow"
)

// X11 implements Service on top of an X11 connection. Windows are grouped
// into applications by _NET_WM_PID; the numeric window identifier is the X
// window id itself. All callbacks are delivered from the xevent main loop
// goroutine, which satisfies the serialization contract of Service.
type X11 struct {
	xu   *xgbutil.XUtil
	root xproto.Window

	atoms x11Atoms

	mu        sync.Mutex
	observers map[int]*x11Observer
	handles   map[xproto.Window]*x11Window
	subs      map[x11SubKey]any // subscription -> context
	clients   map[xproto.Window]int
	geometry  map[xproto.Window]xRect
	iconic    map[xproto.Window]bool
	active    xproto.Window
}

type x11Observer struct {
	proc Process
	cb   Callback
	ctx  any
}

type x11SubKey struct {
	win  xproto.Window
	kind Kind
}

type xRect struct {
	x, y int16
	w, h uint16
}

// NewX11 connects to the X server and prepares the notification plumbing.
// Run must be called for callbacks to fire.
func NewX11() (*X11, error) {
	xu, err := xgbutil.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X11: %w", err)
	}

	s := &X11{
		xu:        xu,
		root:      xu.RootWin(),
		observers: make(map[int]*x11Observer),
		handles:   make(map[xproto.Window]*x11Window),
		subs:      make(map[x11SubKey]any),
		clients:   make(map[xproto.Window]int),
		geometry:  make(map[xproto.Window]xRect),
		iconic:    make(map[xproto.Window]bool),
	}

	// Root property events drive client-list diffing and focus tracking.
	if err := xwindow.New(xu, s.root).Listen(xproto.EventMaskPropertyChange); err != nil {
		xu.Conn().Close()
		return nil, fmt.Errorf("failed to listen on root window: %w", err)
	}

	s.connectHandlers()
	return s, nil
}

// Close disconnects from the X server.
func (s *X11) Close() {
	s.xu.Conn().Close()
}

// x11Process identifies one application by pid.
type x11Process struct {
	pid  int
	name string
}

func (p *x11Process) PID() int     { return p.pid }
func (p *x11Process) Name() string { return p.name }

// x11Window wraps one X window. Once the service sees a DestroyNotify for
// the window, the handle answers ID() with 0 and Title with an error.
type x11Window struct {
	svc *X11
	win xproto.Window

	mu        sync.Mutex
	destroyed bool
}

func (w *x11Window) ID() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return 0
	}
	return uint32(w.win)
}

func (w *x11Window) Title() (string, error) {
	w.mu.Lock()
	dead := w.destroyed
	w.mu.Unlock()
	if dead {
		return "", fmt.Errorf("window 0x%x: element destroyed", w.win)
	}

	name, err := ewmh.WmNameGet(w.svc.xu, w.win)
	if err != nil || name == "" {
		// Fall back to the ICCCM name for clients without _NET_WM_NAME.
		name, err = icccm.WmNameGet(w.svc.xu, w.win)
		if err != nil {
			return "", fmt.Errorf("failed to get window title: %w", err)
		}
	}
	return name, nil
}

func (w *x11Window) markDestroyed() {
	w.mu.Lock()
	w.destroyed = true
	w.mu.Unlock()
}

// RunningProcesses enumerates the owners of the current EWMH client list,
// grouped by _NET_WM_PID. Windows without a pid property are skipped.
func (s *X11) RunningProcesses(policy ProcessPolicy) ([]Process, error) {
	clients, err := ewmh.ClientListGet(s.xu)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	seen := make(map[int]*x11Process)
	var procs []Process
	for _, win := range clients {
		pid, err := ewmh.WmPidGet(s.xu, win)
		if err != nil || pid == 0 {
			continue
		}
		if s.windowPolicy(win)&policy == 0 {
			continue
		}
		if _, ok := seen[int(pid)]; ok {
			continue
		}
		p := &x11Process{pid: int(pid), name: s.processName(win)}
		seen[int(pid)] = p
		procs = append(procs, p)
	}
	return procs, nil
}

// Windows enumerates the client-list windows owned by proc's pid.
func (s *X11) Windows(proc Process) ([]Window, error) {
	clients, err := ewmh.ClientListGet(s.xu)
	if err != nil {
		return nil, fmt.Errorf("failed to get client list: %w", err)
	}

	var windows []Window
	for _, win := range clients {
		pid, err := ewmh.WmPidGet(s.xu, win)
		if err != nil || int(pid) != proc.PID() {
			continue
		}
		windows = append(windows, s.handleFor(win, proc.PID()))
	}
	return windows, nil
}

// Attach registers cb as the observer for proc.
func (s *X11) Attach(proc Process, cb Callback, ctx any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers[proc.PID()] = &x11Observer{proc: proc, cb: cb, ctx: ctx}
	return nil
}

// Detach removes proc's observer and its per-window subscriptions.
func (s *X11) Detach(proc Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.observers, proc.PID())
	for key := range s.subs {
		if s.clients[key.win] == proc.PID() {
			delete(s.subs, key)
		}
	}
}

// Subscribe registers a per-window notification delivered with ctx. The
// window must belong to an attached process.
func (s *X11) Subscribe(proc Process, w Window, kind Kind, ctx any) error {
	xw, ok := w.(*x11Window)
	if !ok {
		return fmt.Errorf("foreign window handle %T", w)
	}

	s.mu.Lock()
	if _, attached := s.observers[proc.PID()]; !attached {
		s.mu.Unlock()
		return fmt.Errorf("pid %d: no observer attached", proc.PID())
	}
	s.subs[x11SubKey{win: xw.win, kind: kind}] = ctx
	s.clients[xw.win] = proc.PID()
	s.mu.Unlock()

	// Structure events carry DestroyNotify; property events carry title and
	// WM_STATE changes. A window that refuses event selection is not
	// trackable.
	if err := xwindow.New(s.xu, xw.win).Listen(
		xproto.EventMaskStructureNotify | xproto.EventMaskPropertyChange,
	); err != nil {
		s.mu.Lock()
		delete(s.subs, x11SubKey{win: xw.win, kind: kind})
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on window 0x%x: %w", xw.win, err)
	}
	return nil
}

// Unsubscribe removes a per-window subscription. Safe for destroyed windows.
func (s *X11) Unsubscribe(proc Process, w Window, kind Kind) {
	xw, ok := w.(*x11Window)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.subs, x11SubKey{win: xw.win, kind: kind})
	s.mu.Unlock()
}

// handleFor returns the cached handle for win, creating one if needed.
func (s *X11) handleFor(win xproto.Window, pid int) *x11Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.handles[win]; ok {
		return h
	}
	h := &x11Window{svc: s, win: win}
	s.handles[win] = h
	s.clients[win] = pid
	return h
}

// windowPolicy classifies a window's owner by EWMH window type.
func (s *X11) windowPolicy(win xproto.Window) ProcessPolicy {
	types, err := ewmh.WmWindowTypeGet(s.xu, win)
	if err != nil {
		return PolicyRegular
	}
	for _, t := range types {
		switch t {
		case "_NET_WM_WINDOW_TYPE_DOCK",
			"_NET_WM_WINDOW_TYPE_DESKTOP",
			"_NET_WM_WINDOW_TYPE_NOTIFICATION":
			return PolicyUIElement
		}
	}
	return PolicyRegular
}

// processName derives an application name from WM_CLASS, falling back to the
// window title.
func (s *X11) processName(win xproto.Window) string {
	if class, err := icccm.WmClassGet(s.xu, win); err == nil && class.Class != "" {
		return class.Class
	}
	if name, err := ewmh.WmNameGet(s.xu, win); err == nil {
		return name
	}
	return fmt.Sprintf("pid-window-0x%x", win)
}
