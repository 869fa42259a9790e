// Package trigger implements the background engine that watches the
// clock and fires the bell announcement when a schedule entry's start
// time matches the current minute.
package trigger

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// minuteLayout formats a wall-clock instant to the "HH:MM" resolution
// used for schedule matching.
const minuteLayout = "15:04"

// ScheduleView exposes the sorted schedule to the engine.
type ScheduleView interface {
	Sorted() []domain.ScheduleEntry
}

// SettingsView exposes the current settings to the engine.
type SettingsView interface {
	Current() domain.Settings
}

// Option configures the engine.
type Option func(*Engine)

// WithTickInterval sets how often the clock is sampled. The engine must
// run at least once per calendar minute; sub-minute ticks are safe and
// idempotent.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		e.tickInterval = d
	}
}

// WithClock replaces the wall-clock reading, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine evaluates trigger matches once per tick. It has two states,
// idle and announcing: while an announcement is in flight every new
// match is suppressed and permanently dropped, never queued. Within a
// minute at most one automatic trigger fires, guarded by lastFired.
type Engine struct {
	schedule  ScheduleView
	settings  SettingsView
	announcer domain.Announcer
	log       *logger.Logger

	tickInterval time.Duration
	now          func() time.Time

	mu         sync.Mutex
	lastFired  string // most recent "HH:MM" already triggered, "" = none
	announcing bool
	running    bool
	cancel     context.CancelFunc
}

// New creates a trigger engine with the given dependencies and options.
func New(schedule ScheduleView, settings SettingsView, announcer domain.Announcer, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		schedule:     schedule,
		settings:     settings,
		announcer:    announcer,
		log:          log,
		tickInterval: 1 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins the background tick loop. Non-blocking.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		e.log.Warn("trigger engine already running")
		return
	}

	childCtx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.running = true

	go e.loop(childCtx)
	e.log.Info("trigger engine started (tick=%s)", e.tickInterval)
}

// Stop shuts down the tick loop.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}

	e.cancel()
	e.running = false
	e.log.Info("trigger engine stopped")
}

// loop is the main tick loop.
func (e *Engine) loop(ctx context.Context) {
	ticker := time.NewTicker(e.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx, e.now())
		}
	}
}

// Tick runs one evaluation cycle against the given instant. Exported so
// tests can drive the engine with a synthetic clock.
func (e *Engine) Tick(ctx context.Context, now time.Time) {
	if !e.settings.Current().AutoTriggerEnabled {
		return
	}

	minute := now.Format(minuteLayout)

	e.mu.Lock()
	if e.announcing || minute == e.lastFired {
		e.mu.Unlock()
		return
	}

	entry, ok := e.match(minute)
	if !ok {
		e.mu.Unlock()
		return
	}

	// One trigger per minute: record the minute even before the
	// announcement finishes, so sub-minute ticks are no-ops.
	e.lastFired = minute
	e.announcing = true
	e.mu.Unlock()

	e.log.Info("bell matched: period %d at %s (%s)", entry.Period, entry.StartTime, entry.Subject)
	go e.run(ctx, entry)
}

// match scans active entries in sorted order for one starting at the
// given minute. On duplicate start times the first in sorted order wins;
// the rest are not triggered separately that minute.
func (e *Engine) match(minute string) (domain.ScheduleEntry, bool) {
	for _, entry := range e.schedule.Sorted() {
		if entry.IsActive && entry.StartTime == minute {
			return entry, true
		}
	}
	return domain.ScheduleEntry{}, false
}

// Test manually fires the announcement for a specific entry, bypassing
// the minute-match and lastFired guards. The announcing guard still
// holds: concurrent tests do not stack. Blocks until the sequence
// completes.
func (e *Engine) Test(ctx context.Context, entry domain.ScheduleEntry) error {
	e.mu.Lock()
	if e.announcing {
		e.mu.Unlock()
		return domain.ErrAnnouncementInFlight
	}
	e.announcing = true
	e.mu.Unlock()

	defer e.clearAnnouncing()

	settings := e.settings.Current()
	if err := e.announcer.Announce(ctx, entry, settings); err != nil {
		e.log.Error("test announcement: %v", err)
		return err
	}
	return nil
}

// Announcing reports whether an announcement sequence is in flight.
func (e *Engine) Announcing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.announcing
}

// run executes one announcement sequence. The entry was captured by
// value at match time, so schedule edits cannot affect it. The
// announcing flag is cleared on every exit path.
func (e *Engine) run(ctx context.Context, entry domain.ScheduleEntry) {
	defer e.clearAnnouncing()

	settings := e.settings.Current()
	if err := e.announcer.Announce(ctx, entry, settings); err != nil {
		e.log.Error("announcement for period %d: %v", entry.Period, err)
	}
}

func (e *Engine) clearAnnouncing() {
	e.mu.Lock()
	e.announcing = false
	e.mu.Unlock()
}
