// Package dispatch fans domain events out from the state core to any number
// of subscribers without ever blocking notification delivery.
package dispatch

import (
	"log/slog"
	"sync"

	"github.com/1broseidon/winstated/internal/state"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 64

// Fanout is a non-blocking state.Dispatcher. A subscriber that falls behind
// loses events rather than stalling the notification goroutine; drops are
// counted and logged.
type Fanout struct {
	logger *slog.Logger

	mu      sync.Mutex
	subs    []chan state.Event
	closed  bool
	dropped uint64
}

// New creates an event fanout.
func New(logger *slog.Logger) *Fanout {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fanout{logger: logger}
}

// Dispatch delivers ev to every subscriber. Never blocks.
func (f *Fanout) Dispatch(ev state.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			f.dropped++
			var id uint32
			if ev.Window != nil {
				id = ev.Window.ID()
			}
			f.logger.Warn("event subscriber lagging, dropping event",
				"kind", ev.Kind.String(),
				"window_id", id,
				"dropped_total", f.dropped)
		}
	}
}

// Subscribe registers a new subscriber with the given channel capacity
// (DefaultBuffer when <= 0). The channel is closed by Close.
func (f *Fanout) Subscribe(buffer int) <-chan state.Event {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan state.Event, buffer)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		close(ch)
		return ch
	}
	f.subs = append(f.subs, ch)
	return ch
}

// Dropped returns the total number of events dropped across subscribers.
func (f *Fanout) Dropped() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dropped
}

// Close closes all subscriber channels. Dispatch becomes a no-op.
func (f *Fanout) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
}
