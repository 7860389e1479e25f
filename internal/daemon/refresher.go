// Package daemon runs the long-lived loops around the state core: the
// periodic registry refresh and the event log drain.
package daemon

import (
	"context"
	"log/slog"
	"time"

	"github.com/1broseidon/winstated/internal/ax"
	"github.com/1broseidon/winstated/internal/state"
)

// RefresherConfig holds configuration for the refresher.
type RefresherConfig struct {
	Interval time.Duration
	Policy   ax.ProcessPolicy
	Logger   *slog.Logger
}

// Refresher periodically re-runs window discovery for every tracked
// application, catching windows whose notifications were missed and
// cleaning up after applications removed without destroy notifications.
type Refresher struct {
	interval time.Duration
	policy   ax.ProcessPolicy
	st       *state.State
	logger   *slog.Logger
}

// NewRefresher creates a refresher over the given state service.
func NewRefresher(cfg RefresherConfig, st *state.State) *Refresher {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Refresher{
		interval: interval,
		policy:   cfg.Policy,
		st:       st,
		logger:   logger,
	}
}

// Run starts the refresh loop. Blocks until context is cancelled.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("refresher started", "interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopped")
			return
		case <-ticker.C:
			r.refresh()
		}
	}
}

// refresh performs a single resync pass.
func (r *Refresher) refresh() {
	// Recover from panics to prevent crashing the daemon
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error("refresher panic recovered", "error", err)
		}
	}()

	before := r.st.WindowCount()
	if err := r.st.SyncProcesses(r.policy); err != nil {
		r.logger.Error("refresher: failed to sync processes", "error", err)
	}
	r.st.Refresh()
	after := r.st.WindowCount()
	if after != before {
		r.logger.Info("refresh reconciled windows",
			"before", before,
			"after", after)
	}
}

// RefreshNow triggers an immediate resync pass.
func (r *Refresher) RefreshNow() {
	r.refresh()
}

// DrainEvents logs every domain event from ch until ch closes or ctx is
// cancelled. This is the daemon's default event consumer; a window-management
// dispatcher replaces it when wired in.
func DrainEvents(ctx context.Context, ch <-chan state.Event, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			logger.Debug("window event",
				"kind", ev.Kind.String(),
				"window_id", ev.Window.ID(),
				"app", ev.Window.Owner().Name(),
				"title", ev.Window.Title())
		}
	}
}
