// Package ax defines the accessibility-service boundary: opaque process and
// window handles, notification kinds, and the Service interface the state
// core consumes. Implementations translate a display server's event stream
// into these callbacks; the X11 implementation lives in this package, and
// tests substitute a fake.
package ax

// Kind identifies an accessibility notification.
type Kind int

const (
	// WindowCreated fires when an application opens a new window. Delivered
	// with the application context supplied at Attach time.
	WindowCreated Kind = iota

	// ElementDestroyed fires when a window's underlying element is torn
	// down. The element can no longer be queried for its id at this point,
	// so this notification is subscribed per window, carrying the window
	// itself as context.
	ElementDestroyed

	// FocusedWindowChanged fires when an application's focused window changes.
	FocusedWindowChanged

	WindowMoved
	WindowResized
	WindowMiniaturized
	WindowDeminiaturized
	TitleChanged
)

func (k Kind) String() string {
	switch k {
	case WindowCreated:
		return "window_created"
	case ElementDestroyed:
		return "element_destroyed"
	case FocusedWindowChanged:
		return "focused_window_changed"
	case WindowMoved:
		return "window_moved"
	case WindowResized:
		return "window_resized"
	case WindowMiniaturized:
		return "window_miniaturized"
	case WindowDeminiaturized:
		return "window_deminiaturized"
	case TitleChanged:
		return "title_changed"
	default:
		return "unknown"
	}
}

// ProcessPolicy filters which running processes qualify for tracking.
type ProcessPolicy uint32

const (
	// PolicyRegular matches ordinary application processes.
	PolicyRegular ProcessPolicy = 1 << iota
	// PolicyUIElement matches background processes that own UI elements
	// without appearing as regular applications (docks, panels).
	PolicyUIElement
)

// Process is an opaque handle to a running application. The handle stays
// valid until the process terminates; after that, holding it is harmless but
// querying through the Service is not guaranteed to succeed.
type Process interface {
	PID() int
	Name() string
}

// Window is an opaque handle to a window element.
//
// ID returns the stable numeric window identifier, or 0 when the element can
// no longer be queried (a destroyed element keeps comparing equal to cached
// handles but answers no property requests). Title may fail for the same
// reason.
type Window interface {
	ID() uint32
	Title() (string, error)
}

// Callback receives notifications for an observed process. ctx is the
// reference supplied at Attach time for application-level notifications, or
// at Subscribe time for per-window subscriptions.
type Callback func(kind Kind, element Window, ctx any)

// Service is the OS accessibility boundary the state core drives.
//
// Implementations must deliver all callbacks for all processes from a single
// goroutine: the state core relies on notification delivery being serialized.
type Service interface {
	// RunningProcesses enumerates processes matching the policy mask.
	RunningProcesses(policy ProcessPolicy) ([]Process, error)

	// Windows enumerates the current windows of one application.
	Windows(proc Process) ([]Window, error)

	// Attach registers cb as the observer for proc. Application-level
	// notifications are delivered with ctx. At most one observer per
	// process; attaching twice replaces the previous observer.
	Attach(proc Process, cb Callback, ctx any) error

	// Detach removes the observer for proc along with any per-window
	// subscriptions made through it. Detaching an unobserved process is a
	// no-op.
	Detach(proc Process)

	// Subscribe registers a per-window notification on proc's observer,
	// delivered with ctx instead of the observer's application context.
	Subscribe(proc Process, w Window, kind Kind, ctx any) error

	// Unsubscribe removes a per-window subscription. Safe to call with a
	// handle whose element is already destroyed.
	Unsubscribe(proc Process, w Window, kind Kind)
}
