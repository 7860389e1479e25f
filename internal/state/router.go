package state

import "github.com/1broseidon/winstated/internal/ax"

// Notify is the single entry point for accessibility notifications. ctx is
// the reference registered with the subscription: the owning *Application
// for application-level notifications, or the *Window itself for the
// per-window destroy subscription. The destroy special case exists because a
// destroyed element can no longer be queried for its id, so the id-based
// resolution used by every other kind is unavailable for it.
//
// Notifications for windows that never entered the registry resolve to
// nothing and are dropped; that is the normal case, not an error.
func (s *State) Notify(kind ax.Kind, element ax.Window, ctx any) {
	switch kind {
	case ax.WindowCreated:
		app, ok := ctx.(*Application)
		if !ok {
			return
		}
		s.windowCreated(app, element)

	case ax.ElementDestroyed:
		w, ok := ctx.(*Window)
		if !ok {
			return
		}
		s.Unregister(w)
		s.emit(EventWindowDestroyed, w)

	case ax.FocusedWindowChanged:
		if w, ok := s.Window(element.ID()); ok {
			s.emit(EventWindowFocused, w)
		}

	case ax.WindowMoved:
		if w, ok := s.Window(element.ID()); ok {
			s.emit(EventWindowMoved, w)
		}

	case ax.WindowResized:
		if w, ok := s.Window(element.ID()); ok {
			s.emit(EventWindowResized, w)
		}

	case ax.WindowMiniaturized:
		if w, ok := s.Window(element.ID()); ok {
			s.emit(EventWindowMinimized, w)
		}

	case ax.WindowDeminiaturized:
		if w, ok := s.Window(element.ID()); ok {
			s.emit(EventWindowDeminimized, w)
		}

	case ax.TitleChanged:
		if w, ok := s.Window(element.ID()); ok {
			w.refreshTitle()
			s.emit(EventWindowTitleChanged, w)
		}
	}
}

// windowCreated admits a freshly announced window, discovery-style: a
// duplicate id means enumeration got there first and the notification's
// copy is dropped without a second created event.
func (s *State) windowCreated(app *Application, element ax.Window) {
	if _, tracked := s.Window(element.ID()); tracked {
		return
	}

	w := NewWindow(app, element)
	if !s.Register(w) {
		if _, tracked := s.Window(w.id); !tracked {
			s.logger.Warn("created window is not trackable, ignoring",
				"app", app.name,
				"title", w.Title())
		}
		return
	}
	s.emit(EventWindowCreated, w)
}
