package trigger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// mockAnnouncer records announcements for testing. Announce blocks on
// release when set, so tests can hold the engine in the announcing state.
type mockAnnouncer struct {
	mu      sync.Mutex
	entries []domain.ScheduleEntry
	release chan struct{} // nil = return immediately
	err     error
}

func (m *mockAnnouncer) Announce(ctx context.Context, entry domain.ScheduleEntry, _ domain.Settings) error {
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	release := m.release
	err := m.err
	m.mu.Unlock()

	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (m *mockAnnouncer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *mockAnnouncer) last() domain.ScheduleEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[len(m.entries)-1]
}

// fixedSchedule is a static ScheduleView.
type fixedSchedule struct {
	mu      sync.Mutex
	entries []domain.ScheduleEntry
}

func (f *fixedSchedule) Sorted() []domain.ScheduleEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.ScheduleEntry, len(f.entries))
	copy(out, f.entries)
	domain.SortEntries(out)
	return out
}

func (f *fixedSchedule) set(entries []domain.ScheduleEntry) {
	f.mu.Lock()
	f.entries = entries
	f.mu.Unlock()
}

// fixedSettings is a static SettingsView.
type fixedSettings struct {
	mu sync.Mutex
	s  domain.Settings
}

func (f *fixedSettings) Current() domain.Settings {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.s
}

func at(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2026-08-26 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestEngine(entries []domain.ScheduleEntry, auto bool) (*Engine, *mockAnnouncer, *fixedSchedule) {
	log := logger.New(logger.LevelOff, nil)
	sched := &fixedSchedule{entries: entries}
	settings := &fixedSettings{s: domain.Settings{
		SchoolName:         "SMA Test",
		AutoTriggerEnabled: auto,
		VoiceName:          domain.DefaultVoice,
	}}
	ann := &mockAnnouncer{}
	return New(sched, settings, ann, log), ann, sched
}

// waitFor polls cond until true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestTickFiresMatchingEntry(t *testing.T) {
	entry := domain.ScheduleEntry{ID: "a", Period: 1, StartTime: "07:00", IsActive: true}
	eng, ann, _ := newTestEngine([]domain.ScheduleEntry{entry}, true)

	eng.Tick(context.Background(), at("07:00"))

	waitFor(t, func() bool { return ann.count() == 1 })
	if ann.last().ID != "a" {
		t.Errorf("announced %q, want a", ann.last().ID)
	}
}

func TestTickIdempotentWithinMinute(t *testing.T) {
	entry := domain.ScheduleEntry{ID: "a", Period: 1, StartTime: "07:00", IsActive: true}
	eng, ann, _ := newTestEngine([]domain.ScheduleEntry{entry}, true)
	ctx := context.Background()

	// Several sub-minute ticks land on the same minute.
	eng.Tick(ctx, at("07:00"))
	waitFor(t, func() bool { return !eng.Announcing() })
	eng.Tick(ctx, at("07:00"))
	eng.Tick(ctx, at("07:00"))

	time.Sleep(50 * time.Millisecond)
	if got := ann.count(); got != 1 {
		t.Errorf("announcements = %d, want 1", got)
	}
}

func TestTickSkipsInactiveEntries(t *testing.T) {
	entry := domain.ScheduleEntry{ID: "a", Period: 1, StartTime: "07:00", IsActive: false}
	eng, ann, _ := newTestEngine([]domain.ScheduleEntry{entry}, true)

	eng.Tick(context.Background(), at("07:00"))

	time.Sleep(50 * time.Millisecond)
	if ann.count() != 0 {
		t.Error("inactive entry must not trigger")
	}
}

func TestTickRespectsAutoTriggerSwitch(t *testing.T) {
	entry := domain.ScheduleEntry{ID: "a", Period: 1, StartTime: "07:00", IsActive: true}
	eng, ann, _ := newTestEngine([]domain.ScheduleEntry{entry}, false)

	eng.Tick(context.Background(), at("07:00"))

	time.Sleep(50 * time.Millisecond)
	if ann.count() != 0 {
		t.Error("auto-off must suppress triggers")
	}
}

func TestDuplicateStartTimesFireOnce(t *testing.T) {
	entries := []domain.ScheduleEntry{
		{ID: "b", Period: 2, StartTime: "07:00", IsActive: true},
		{ID: "a", Period: 1, StartTime: "07:00", IsActive: true},
	}
	eng, ann, _ := newTestEngine(entries, true)

	eng.Tick(context.Background(), at("07:00"))

	waitFor(t, func() bool { return ann.count() == 1 })
	time.Sleep(50 * time.Millisecond)
	if got := ann.count(); got != 1 {
		t.Fatalf("announcements = %d, want 1", got)
	}
	// Deterministic winner: smallest ID on tie.
	if ann.last().ID != "a" {
		t.Errorf("announced %q, want a", ann.last().ID)
	}
}

func TestMatchDroppedWhileAnnouncing(t *testing.T) {
	entries := []domain.ScheduleEntry{
		{ID: "a", Period: 1, StartTime: "07:00", IsActive: true},
		{ID: "b", Period: 2, StartTime: "07:01", IsActive: true},
	}
	eng, ann, _ := newTestEngine(entries, true)
	ctx := context.Background()

	release := make(chan struct{})
	ann.release = release

	eng.Tick(ctx, at("07:00"))
	waitFor(t, func() bool { return eng.Announcing() })

	// The 07:01 bell lands while 07:00 is still playing: dropped, not queued.
	eng.Tick(ctx, at("07:01"))

	close(release)
	waitFor(t, func() bool { return !eng.Announcing() })

	time.Sleep(50 * time.Millisecond)
	if got := ann.count(); got != 1 {
		t.Errorf("announcements = %d, want 1 (dropped bell must not replay)", got)
	}
}

func TestEntryCapturedByValue(t *testing.T) {
	entries := []domain.ScheduleEntry{
		{ID: "a", Period: 1, StartTime: "07:00", Subject: "Matematika", IsActive: true},
	}
	eng, ann, sched := newTestEngine(entries, true)
	ctx := context.Background()

	release := make(chan struct{})
	ann.release = release

	eng.Tick(ctx, at("07:00"))
	waitFor(t, func() bool { return eng.Announcing() })

	// Delete the entry mid-announcement. The in-flight sequence keeps
	// the values captured at match time.
	sched.set(nil)

	close(release)
	waitFor(t, func() bool { return ann.count() == 1 })
	if ann.last().Subject != "Matematika" {
		t.Errorf("announced subject %q, want Matematika", ann.last().Subject)
	}
}

func TestManualTestBypassesMinuteGuard(t *testing.T) {
	entry := domain.ScheduleEntry{ID: "a", Period: 1, StartTime: "07:00", IsActive: true}
	eng, ann, _ := newTestEngine([]domain.ScheduleEntry{entry}, true)
	ctx := context.Background()

	eng.Tick(ctx, at("07:00"))
	waitFor(t, func() bool { return ann.count() == 1 && !eng.Announcing() })

	// Manual test in the same minute still fires.
	if err := eng.Test(ctx, entry); err != nil {
		t.Fatalf("test: %v", err)
	}
	if got := ann.count(); got != 2 {
		t.Errorf("announcements = %d, want 2", got)
	}
}

func TestManualTestRespectsAnnouncingGuard(t *testing.T) {
	entry := domain.ScheduleEntry{ID: "a", Period: 1, StartTime: "07:00", IsActive: true}
	eng, ann, _ := newTestEngine([]domain.ScheduleEntry{entry}, true)
	ctx := context.Background()

	release := make(chan struct{})
	ann.release = release

	eng.Tick(ctx, at("07:00"))
	waitFor(t, func() bool { return eng.Announcing() })

	if err := eng.Test(ctx, entry); !errors.Is(err, domain.ErrAnnouncementInFlight) {
		t.Errorf("err = %v, want ErrAnnouncementInFlight", err)
	}

	close(release)
	waitFor(t, func() bool { return !eng.Announcing() })
}

func TestManualTestWorksWithAutoOff(t *testing.T) {
	entry := domain.ScheduleEntry{ID: "a", Period: 1, StartTime: "07:00", IsActive: true}
	eng, ann, _ := newTestEngine([]domain.ScheduleEntry{entry}, false)

	if err := eng.Test(context.Background(), entry); err != nil {
		t.Fatalf("test: %v", err)
	}
	if ann.count() != 1 {
		t.Error("manual test must fire regardless of the auto switch")
	}
}

func TestAnnouncingClearsAfterFailure(t *testing.T) {
	entry := domain.ScheduleEntry{ID: "a", Period: 1, StartTime: "07:00", IsActive: true}
	eng, ann, _ := newTestEngine([]domain.ScheduleEntry{entry}, true)
	ann.err = errors.New("boom")

	if err := eng.Test(context.Background(), entry); err == nil {
		t.Fatal("expected error")
	}
	if eng.Announcing() {
		t.Error("announcing flag must clear on error paths")
	}
}

func TestStartStopLifecycle(t *testing.T) {
	entry := domain.ScheduleEntry{ID: "a", Period: 1, StartTime: at("07:00").Format(minuteLayout), IsActive: true}
	eng, _, _ := newTestEngine([]domain.ScheduleEntry{entry}, true)
	ctx := context.Background()

	eng.Start(ctx)
	eng.Start(ctx) // second start is a no-op
	eng.Stop()
	eng.Stop() // second stop is a no-op
}
