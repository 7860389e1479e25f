package state

// Discover enumerates app's current windows and reconciles them against the
// registry. Enumeration legitimately re-surfaces windows already tracked via
// notifications; those duplicates are discarded silently. Windows whose
// destroy notification cannot be subscribed are not trackable and are
// discarded with a log line. Safe to call repeatedly: a second pass over an
// unchanged application registers nothing.
func (s *State) Discover(app *Application) {
	elements, err := s.svc.Windows(app.ref)
	if err != nil {
		s.logger.Warn("window enumeration failed",
			"pid", app.pid,
			"app", app.name,
			"error", err)
		return
	}

	for _, el := range elements {
		if _, tracked := s.Window(el.ID()); tracked {
			continue
		}

		w := NewWindow(app, el)
		if !s.Register(w) {
			// Either a concurrent pass won the registration, or the
			// window is not destructible; both mean we drop our copy.
			if _, tracked := s.Window(w.id); !tracked {
				s.logger.Warn("window is not trackable, ignoring",
					"app", app.name,
					"title", w.Title())
			}
		}
	}
}

// Refresh re-runs discovery for every tracked application. Used for
// periodic or forced resynchronization; idempotent with respect to windows
// already registered.
func (s *State) Refresh() {
	for _, app := range s.Applications() {
		s.Discover(app)
	}
}
