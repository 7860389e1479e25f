package ax

import (
	"context"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/xevent"
	"github.com/BurntSushi/xgbutil/xprop"
)

// Atoms compared against PropertyNotify events.
type x11Atoms struct {
	netWmName    xproto.Atom
	wmName       xproto.Atom
	wmState      xproto.Atom
	activeWindow xproto.Atom
	clientList   xproto.Atom
}

// connectHandlers installs one event hook that translates raw X events into
// accessibility callbacks. A hook (rather than per-window handler funs)
// keeps the routing table in one place and needs no per-window detach.
func (s *X11) connectHandlers() {
	s.atoms.netWmName, _ = xprop.Atm(s.xu, "_NET_WM_NAME")
	s.atoms.wmName, _ = xprop.Atm(s.xu, "WM_NAME")
	s.atoms.wmState, _ = xprop.Atm(s.xu, "WM_STATE")
	s.atoms.activeWindow, _ = xprop.Atm(s.xu, "_NET_ACTIVE_WINDOW")
	s.atoms.clientList, _ = xprop.Atm(s.xu, "_NET_CLIENT_LIST")

	xevent.HookFun(func(xu *xgbutil.XUtil, ev interface{}) bool {
		switch e := ev.(type) {
		case xproto.DestroyNotifyEvent:
			s.onDestroy(e)
		case xproto.ConfigureNotifyEvent:
			s.onConfigure(e)
		case xproto.PropertyNotifyEvent:
			s.onProperty(e)
		}
		return true
	}).Connect(s.xu)
}

// Run pumps the X event loop until ctx is cancelled. All Service callbacks
// fire from this goroutine.
func (s *X11) Run(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			xevent.Quit(s.xu)
		case <-done:
		}
	}()
	xevent.Main(s.xu)
	close(done)
}

func (s *X11) onDestroy(e xproto.DestroyNotifyEvent) {
	win := e.Window

	s.mu.Lock()
	handle := s.handles[win]
	pid := s.clients[win]
	obs := s.observers[pid]
	subCtx, subscribed := s.subs[x11SubKey{win: win, kind: ElementDestroyed}]
	delete(s.handles, win)
	delete(s.clients, win)
	delete(s.geometry, win)
	delete(s.iconic, win)
	delete(s.subs, x11SubKey{win: win, kind: ElementDestroyed})
	s.mu.Unlock()

	if handle == nil {
		return
	}
	// The element is gone; the handle must stop answering property queries
	// before the callback runs.
	handle.markDestroyed()
	if subscribed && obs != nil {
		obs.cb(ElementDestroyed, handle, subCtx)
	}
}

func (s *X11) onConfigure(e xproto.ConfigureNotifyEvent) {
	win := e.Window

	s.mu.Lock()
	pid, tracked := s.clients[win]
	obs := s.observers[pid]
	handle := s.handles[win]
	prev, known := s.geometry[win]
	cur := xRect{x: e.X, y: e.Y, w: e.Width, h: e.Height}
	s.geometry[win] = cur
	s.mu.Unlock()

	if !tracked || obs == nil || handle == nil || !known {
		return
	}
	if prev.x != cur.x || prev.y != cur.y {
		obs.cb(WindowMoved, handle, obs.ctx)
	}
	if prev.w != cur.w || prev.h != cur.h {
		obs.cb(WindowResized, handle, obs.ctx)
	}
}

func (s *X11) onProperty(e xproto.PropertyNotifyEvent) {
	if e.Window == s.root {
		switch e.Atom {
		case s.atoms.activeWindow:
			s.onFocusChange()
		case s.atoms.clientList:
			s.onClientListChange()
		}
		return
	}

	switch e.Atom {
	case s.atoms.netWmName, s.atoms.wmName:
		s.routeToOwner(e.Window, TitleChanged)
	case s.atoms.wmState:
		s.onStateChange(e.Window)
	}
}

func (s *X11) onFocusChange() {
	active, err := ewmh.ActiveWindowGet(s.xu)
	if err != nil || active == 0 {
		return
	}

	s.mu.Lock()
	if active == s.active {
		s.mu.Unlock()
		return
	}
	s.active = active
	s.mu.Unlock()

	s.routeToOwner(active, FocusedWindowChanged)
}

// onClientListChange diffs _NET_CLIENT_LIST against known windows and
// reports new windows of observed applications as created.
func (s *X11) onClientListChange() {
	clients, err := ewmh.ClientListGet(s.xu)
	if err != nil {
		return
	}

	for _, win := range clients {
		s.mu.Lock()
		_, known := s.handles[win]
		s.mu.Unlock()
		if known {
			continue
		}

		pid, err := ewmh.WmPidGet(s.xu, win)
		if err != nil || pid == 0 {
			continue
		}

		s.mu.Lock()
		obs := s.observers[int(pid)]
		s.mu.Unlock()
		if obs == nil {
			continue
		}

		handle := s.handleFor(win, int(pid))
		obs.cb(WindowCreated, handle, obs.ctx)
	}
}

// onStateChange translates ICCCM WM_STATE transitions into miniaturize
// notifications, suppressing repeats of the same state.
func (s *X11) onStateChange(win xproto.Window) {
	state, err := icccm.WmStateGet(s.xu, win)
	if err != nil {
		return
	}
	nowIconic := state.State == icccm.StateIconic

	s.mu.Lock()
	wasIconic := s.iconic[win]
	s.iconic[win] = nowIconic
	s.mu.Unlock()

	if nowIconic == wasIconic {
		return
	}
	if nowIconic {
		s.routeToOwner(win, WindowMiniaturized)
	} else {
		s.routeToOwner(win, WindowDeminiaturized)
	}
}

// routeToOwner delivers an application-level notification for win to the
// observer of its owning process, if any.
func (s *X11) routeToOwner(win xproto.Window, kind Kind) {
	s.mu.Lock()
	pid, tracked := s.clients[win]
	obs := s.observers[pid]
	handle := s.handles[win]
	s.mu.Unlock()

	if !tracked || obs == nil || handle == nil {
		return
	}
	obs.cb(kind, handle, obs.ctx)
}
