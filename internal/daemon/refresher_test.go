package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/1broseidon/winstated/internal/ax"
	"github.com/1broseidon/winstated/internal/state"
)

type stubWindow struct {
	id    uint32
	title string
}

func (w *stubWindow) ID() uint32             { return w.id }
func (w *stubWindow) Title() (string, error) { return w.title, nil }

type stubProcess struct {
	pid  int
	name string
}

func (p *stubProcess) PID() int     { return p.pid }
func (p *stubProcess) Name() string { return p.name }

// stubService serves a mutable process list so tests can simulate
// launches and terminations between refresh passes.
type stubService struct {
	mu      sync.Mutex
	procs   []ax.Process
	windows map[int][]ax.Window
}

func newStubService() *stubService {
	return &stubService{windows: make(map[int][]ax.Window)}
}

func (s *stubService) addApp(pid int, name string, ids ...uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.procs = append(s.procs, &stubProcess{pid: pid, name: name})
	for _, id := range ids {
		s.windows[pid] = append(s.windows[pid], &stubWindow{
			id:    id,
			title: fmt.Sprintf("%s-%d", name, id),
		})
	}
}

func (s *stubService) removeApp(pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, proc := range s.procs {
		if proc.PID() == pid {
			s.procs = append(s.procs[:i:i], s.procs[i+1:]...)
			break
		}
	}
	delete(s.windows, pid)
}

func (s *stubService) RunningProcesses(policy ax.ProcessPolicy) ([]ax.Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ax.Process(nil), s.procs...), nil
}

func (s *stubService) Windows(proc ax.Process) ([]ax.Window, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ax.Window(nil), s.windows[proc.PID()]...), nil
}

func (s *stubService) Attach(proc ax.Process, cb ax.Callback, ctx any) error { return nil }

func (s *stubService) Detach(proc ax.Process) {}

func (s *stubService) Subscribe(proc ax.Process, w ax.Window, kind ax.Kind, ctx any) error {
	return nil
}

func (s *stubService) Unsubscribe(proc ax.Process, w ax.Window, kind ax.Kind) {}

func newTestState(svc ax.Service) *state.State {
	return state.New(svc, nil, state.Options{
		AdmitDelay: -1,
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestRefreshNowReconcilesProcesses(t *testing.T) {
	svc := newStubService()
	svc.addApp(100, "editor", 7)

	st := newTestState(svc)
	if err := st.Init(ax.PolicyRegular); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	svc.removeApp(100)
	svc.addApp(200, "browser", 9)

	r := NewRefresher(RefresherConfig{
		Interval: time.Hour, // the ticker must not fire during the test
		Policy:   ax.PolicyRegular,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, st)
	r.RefreshNow()

	if _, ok := st.Application(100); ok {
		t.Fatalf("terminated application 100 must be removed by the resync")
	}
	app, ok := st.Application(200)
	if !ok {
		t.Fatalf("launched application 200 must be admitted by the resync")
	}
	<-app.Ready()

	if _, ok := st.Window(9); !ok {
		t.Fatalf("expected window 9 discovered for the new application")
	}
	if _, ok := st.Window(7); ok {
		t.Fatalf("expected window 7 purged with its application")
	}
}

func TestRefreshNowPicksUpMissedWindows(t *testing.T) {
	svc := newStubService()
	svc.addApp(100, "editor", 7)

	st := newTestState(svc)
	if err := st.Init(ax.PolicyRegular); err != nil {
		t.Fatalf("unexpected init error: %v", err)
	}

	// A window whose creation notification was missed.
	svc.mu.Lock()
	svc.windows[100] = append(svc.windows[100], &stubWindow{id: 8, title: "late"})
	svc.mu.Unlock()

	r := NewRefresher(RefresherConfig{
		Interval: time.Hour,
		Policy:   ax.PolicyRegular,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, st)
	r.RefreshNow()

	if _, ok := st.Window(8); !ok {
		t.Fatalf("expected resync to register the missed window")
	}
	if st.WindowCount() != 2 {
		t.Fatalf("expected 2 windows after resync, got %d", st.WindowCount())
	}
}

func TestDrainEventsReturnsOnChannelClose(t *testing.T) {
	ch := make(chan state.Event)
	done := make(chan struct{})
	go func() {
		DrainEvents(context.Background(), ch, slog.New(slog.NewTextHandler(io.Discard, nil)))
		close(done)
	}()

	close(ch)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("DrainEvents did not return after channel close")
	}
}
