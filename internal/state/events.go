package state

// EventKind identifies a domain event produced by the notification router.
type EventKind int

const (
	EventWindowCreated EventKind = iota
	EventWindowDestroyed
	EventWindowFocused
	EventWindowMoved
	EventWindowResized
	EventWindowMinimized
	EventWindowDeminimized
	EventWindowTitleChanged
)

func (k EventKind) String() string {
	switch k {
	case EventWindowCreated:
		return "window_created"
	case EventWindowDestroyed:
		return "window_destroyed"
	case EventWindowFocused:
		return "window_focused"
	case EventWindowMoved:
		return "window_moved"
	case EventWindowResized:
		return "window_resized"
	case EventWindowMinimized:
		return "window_minimized"
	case EventWindowDeminimized:
		return "window_deminimized"
	case EventWindowTitleChanged:
		return "window_title_changed"
	default:
		return "unknown"
	}
}

// Event is one fully-resolved domain event. Window is the affected record;
// for EventWindowDestroyed its handle must no longer be queried.
type Event struct {
	Kind   EventKind
	Window *Window
}

// Dispatcher consumes the domain-event stream. Implementations must not
// block: events are emitted from the notification delivery goroutine.
type Dispatcher interface {
	Dispatch(Event)
}
