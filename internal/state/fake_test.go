package state

import (
	"fmt"
	"sync"

	"github.com/1broseidon/winstated/internal/ax"
)

// fakeWindow is an in-memory element handle. Once destroyed it answers
// ID() with 0 and Title with an error, like a real torn-down element.
type fakeWindow struct {
	winID uint32
	pid   int

	mu        sync.Mutex
	title     string
	destroyed bool
}

func (w *fakeWindow) ID() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return 0
	}
	return w.winID
}

func (w *fakeWindow) Title() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return "", fmt.Errorf("window %d: element destroyed", w.winID)
	}
	return w.title, nil
}

func (w *fakeWindow) setTitle(title string) {
	w.mu.Lock()
	w.title = title
	w.mu.Unlock()
}

type fakeProcess struct {
	pid  int
	name string
}

func (p *fakeProcess) PID() int     { return p.pid }
func (p *fakeProcess) Name() string { return p.name }

type fakeObserver struct {
	cb  ax.Callback
	ctx any
}

type fakeSubKey struct {
	win  ax.Window
	kind ax.Kind
}

// fakeService is an in-memory accessibility service for tests.
type fakeService struct {
	mu        sync.Mutex
	procs     []ax.Process
	windows   map[int][]ax.Window
	observers map[int]fakeObserver
	subs      map[fakeSubKey]any
	failSub   map[uint32]bool
	attachErr map[int]error
}

func newFakeService() *fakeService {
	return &fakeService{
		windows:   make(map[int][]ax.Window),
		observers: make(map[int]fakeObserver),
		subs:      make(map[fakeSubKey]any),
		failSub:   make(map[uint32]bool),
		attachErr: make(map[int]error),
	}
}

// addApp registers a fake process with one window per id.
func (f *fakeService) addApp(pid int, name string, ids ...uint32) *fakeProcess {
	f.mu.Lock()
	defer f.mu.Unlock()
	proc := &fakeProcess{pid: pid, name: name}
	f.procs = append(f.procs, proc)
	for _, id := range ids {
		f.windows[pid] = append(f.windows[pid], &fakeWindow{
			winID: id,
			pid:   pid,
			title: fmt.Sprintf("%s-%d", name, id),
		})
	}
	return proc
}

// removeApp forgets a process, simulating its termination.
func (f *fakeService) removeApp(pid int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, proc := range f.procs {
		if proc.PID() == pid {
			f.procs = append(f.procs[:i:i], f.procs[i+1:]...)
			break
		}
	}
	delete(f.windows, pid)
}

func (f *fakeService) addWindow(pid int, id uint32, title string) *fakeWindow {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := &fakeWindow{winID: id, pid: pid, title: title}
	f.windows[pid] = append(f.windows[pid], w)
	return w
}

func (f *fakeService) RunningProcesses(policy ax.ProcessPolicy) ([]ax.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ax.Process(nil), f.procs...), nil
}

func (f *fakeService) Windows(proc ax.Process) ([]ax.Window, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ax.Window(nil), f.windows[proc.PID()]...), nil
}

func (f *fakeService) Attach(proc ax.Process, cb ax.Callback, ctx any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.attachErr[proc.PID()]; err != nil {
		return err
	}
	f.observers[proc.PID()] = fakeObserver{cb: cb, ctx: ctx}
	return nil
}

func (f *fakeService) Detach(proc ax.Process) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.observers, proc.PID())
}

func (f *fakeService) Subscribe(proc ax.Process, w ax.Window, kind ax.Kind, ctx any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, attached := f.observers[proc.PID()]; !attached {
		return fmt.Errorf("pid %d: no observer attached", proc.PID())
	}
	if f.failSub[w.ID()] {
		return fmt.Errorf("window %d: subscription refused", w.ID())
	}
	f.subs[fakeSubKey{win: w, kind: kind}] = ctx
	return nil
}

func (f *fakeService) Unsubscribe(proc ax.Process, w ax.Window, kind ax.Kind) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs, fakeSubKey{win: w, kind: kind})
}

func (f *fakeService) subCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// destroy tears down a window element and delivers its destroy notification
// the way the OS would: through the owning observer, with the context
// registered at subscription time.
func (f *fakeService) destroy(w *fakeWindow) {
	f.mu.Lock()
	ctx, subscribed := f.subs[fakeSubKey{win: w, kind: ax.ElementDestroyed}]
	obs, attached := f.observers[w.pid]
	wins := f.windows[w.pid]
	for i, el := range wins {
		if el == ax.Window(w) {
			f.windows[w.pid] = append(wins[:i:i], wins[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	w.mu.Lock()
	w.destroyed = true
	w.mu.Unlock()

	if subscribed && attached {
		obs.cb(ax.ElementDestroyed, w, ctx)
	}
}

// notify delivers an application-level notification for w.
func (f *fakeService) notify(kind ax.Kind, w *fakeWindow) {
	f.mu.Lock()
	obs, attached := f.observers[w.pid]
	f.mu.Unlock()
	if attached {
		obs.cb(kind, w, obs.ctx)
	}
}

// recordingSink captures dispatched events.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Dispatch(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingSink) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Kind
	}
	return out
}

func (r *recordingSink) last() (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return Event{}, false
	}
	return r.events[len(r.events)-1], true
}
