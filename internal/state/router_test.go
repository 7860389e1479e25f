package state

import (
	"sync"
	"testing"

	"github.com/1broseidon/winstated/internal/ax"
)

func TestRouterEmitsResolvedEvents(t *testing.T) {
	svc := newFakeService()
	sink := &recordingSink{}
	st := newTestState(svc, sink)
	proc := svc.addApp(100, "editor", 7)
	admitAndWait(st, proc)

	el := svc.windows[100][0].(*fakeWindow)

	cases := []struct {
		kind ax.Kind
		want EventKind
	}{
		{ax.FocusedWindowChanged, EventWindowFocused},
		{ax.WindowMoved, EventWindowMoved},
		{ax.WindowResized, EventWindowResized},
		{ax.WindowMiniaturized, EventWindowMinimized},
		{ax.WindowDeminiaturized, EventWindowDeminimized},
	}
	for _, tc := range cases {
		svc.notify(tc.kind, el)
		ev, ok := sink.last()
		if !ok || ev.Kind != tc.want {
			t.Fatalf("notification %v: expected event %v, got %+v", tc.kind, tc.want, ev)
		}
		if ev.Window.ID() != 7 {
			t.Fatalf("notification %v: expected window 7, got %d", tc.kind, ev.Window.ID())
		}
	}
}

func TestRouterDropsUnknownWindows(t *testing.T) {
	svc := newFakeService()
	sink := &recordingSink{}
	st := newTestState(svc, sink)
	proc := svc.addApp(100, "editor")
	admitAndWait(st, proc)

	// A window of an observed app that never entered the registry.
	el := svc.addWindow(100, 99, "untracked")
	svc.notify(ax.FocusedWindowChanged, el)
	svc.notify(ax.WindowMoved, el)
	svc.notify(ax.TitleChanged, el)

	if got := sink.kinds(); len(got) != 0 {
		t.Fatalf("expected unresolvable notifications to be dropped, got %v", got)
	}
}

func TestRouterTitleChangeReplacesTitle(t *testing.T) {
	svc := newFakeService()
	sink := &recordingSink{}
	st := newTestState(svc, sink)
	proc := svc.addApp(100, "editor", 7)
	admitAndWait(st, proc)

	el := svc.windows[100][0].(*fakeWindow)
	el.setTitle("renamed")
	svc.notify(ax.TitleChanged, el)

	w, ok := st.Window(7)
	if !ok {
		t.Fatalf("window 7 missing")
	}
	if w.Title() != "renamed" {
		t.Fatalf("expected title %q, got %q", "renamed", w.Title())
	}
	if ev, _ := sink.last(); ev.Kind != EventWindowTitleChanged {
		t.Fatalf("expected title-changed event, got %+v", ev)
	}
}

func TestRouterCreatedThenDestroyedLeavesNoEntry(t *testing.T) {
	svc := newFakeService()
	sink := &recordingSink{}
	st := newTestState(svc, sink)
	proc := svc.addApp(100, "editor")
	admitAndWait(st, proc)

	el := svc.addWindow(100, 7, "popup")
	svc.notify(ax.WindowCreated, el)
	if _, ok := st.Window(7); !ok {
		t.Fatalf("window 7 missing after creation notification")
	}
	svc.destroy(el)

	if _, ok := st.Window(7); ok {
		t.Fatalf("window 7 must not remain after destroy notification")
	}
	if svc.subCount() != 0 {
		t.Fatalf("expected no dangling subscriptions, got %d", svc.subCount())
	}
	kinds := sink.kinds()
	if len(kinds) != 2 || kinds[0] != EventWindowCreated || kinds[1] != EventWindowDestroyed {
		t.Fatalf("expected created+destroyed events, got %v", kinds)
	}
}

func TestRouterCreatedDuplicateIsDropped(t *testing.T) {
	svc := newFakeService()
	sink := &recordingSink{}
	st := newTestState(svc, sink)
	proc := svc.addApp(100, "editor", 7)
	admitAndWait(st, proc)

	// Enumeration already tracked window 7; the late creation notification
	// must not produce a second record or event.
	el := svc.windows[100][0].(*fakeWindow)
	svc.notify(ax.WindowCreated, el)

	if st.WindowCount() != 1 {
		t.Fatalf("expected 1 window, got %d", st.WindowCount())
	}
	if got := sink.kinds(); len(got) != 0 {
		t.Fatalf("expected no events for duplicate creation, got %v", got)
	}
}

func TestRouterCreatedRacesDiscovery(t *testing.T) {
	svc := newFakeService()
	st := newTestState(svc, nil)
	proc := svc.addApp(100, "editor")
	app := admitAndWait(st, proc)

	el := svc.addWindow(100, 42, "raced")

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		svc.notify(ax.WindowCreated, el)
	}()
	go func() {
		defer wg.Done()
		st.Discover(app)
	}()
	wg.Wait()

	if st.WindowCount() != 1 {
		t.Fatalf("expected exactly one registration, got %d", st.WindowCount())
	}
	if svc.subCount() != 1 {
		t.Fatalf("expected exactly one destroy subscription, got %d", svc.subCount())
	}
}
