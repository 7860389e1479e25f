package state

import (
	"sync"

	"github.com/1broseidon/winstated/internal/ax"
)

// Window is the registry's record of one tracked window. The id is stable
// for the window's lifetime and usable as a lookup key even when the element
// handle has become unqueryable. The handle must not be queried after the
// destroy notification for this window has been delivered.
type Window struct {
	id    uint32
	owner *Application
	ref   ax.Window

	mu    sync.Mutex
	title string
}

// NewWindow builds a window record for an element owned by app, capturing
// the element's current id and title.
func NewWindow(app *Application, el ax.Window) *Window {
	title, err := el.Title()
	if err != nil {
		title = ""
	}
	return &Window{
		id:    el.ID(),
		owner: app,
		ref:   el,
		title: title,
	}
}

// ID returns the stable numeric window identifier. 0 marks an invalid
// window that was never admissible.
func (w *Window) ID() uint32 { return w.id }

// Owner returns the owning application record.
func (w *Window) Owner() *Application { return w.owner }

// Ref returns the underlying element handle.
func (w *Window) Ref() ax.Window { return w.ref }

// Title returns the last observed window title.
func (w *Window) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

// refreshTitle replaces the stored title wholesale from the element. A
// failed query keeps the previous title.
func (w *Window) refreshTitle() {
	title, err := w.ref.Title()
	if err != nil {
		return
	}
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
}
