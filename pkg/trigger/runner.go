// Package trigger runs named maintenance functions on schedules inside the
// server process, replacing an external cron caller.
package trigger

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Func is one scheduled maintenance task.
type Func func(ctx context.Context) error

type entry struct {
	name     string
	schedule Schedule
	fn       Func
	inFlight atomic.Bool
}

// Runner fires registered triggers on their schedules until the context is
// cancelled.
type Runner struct {
	entries     []*entry
	tick        time.Duration
	callTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time
}

// NewRunner creates an empty Runner.
func NewRunner() *Runner {
	return &Runner{
		tick:        time.Second,
		callTimeout: 5 * time.Minute,
		logger:      slog.Default(),
		now:         time.Now,
	}
}

// SetLogger overrides the default logger.
func (r *Runner) SetLogger(l *slog.Logger) { r.logger = l }

// SetCallTimeout bounds each trigger invocation.
func (r *Runner) SetCallTimeout(d time.Duration) { r.callTimeout = d }

// SetNow overrides the clock, for tests.
func (r *Runner) SetNow(now func() time.Time) { r.now = now }

// SetTick overrides the polling interval, for tests.
func (r *Runner) SetTick(d time.Duration) { r.tick = d }

// Add registers a named trigger.
func (r *Runner) Add(name string, schedule Schedule, fn Func) {
	r.entries = append(r.entries, &entry{name: name, schedule: schedule, fn: fn})
}

// Run blocks, firing due triggers, until ctx is cancelled. Firings run on
// their own goroutines so a slow trigger never delays the others; a trigger
// still in flight when it comes due again is skipped, not stacked.
func (r *Runner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	lastRun := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := r.now()
			for _, e := range r.entries {
				nextRun := e.schedule.Next(lastRun[e.name])
				if now.Before(nextRun) {
					continue
				}
				if !e.inFlight.CompareAndSwap(false, true) {
					continue
				}
				lastRun[e.name] = now
				go r.fire(ctx, e)
			}
		}
	}
}

func (r *Runner) fire(ctx context.Context, e *entry) {
	defer e.inFlight.Store(false)

	callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
	defer cancel()

	start := r.now()
	if err := e.fn(callCtx); err != nil {
		r.logger.Error("trigger failed", "name", e.name, "error", err, "duration", time.Since(start))
		return
	}
	r.logger.Debug("trigger completed", "name", e.name, "duration", time.Since(start))
}
