package announce

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// mockSynth returns canned audio or an error.
type mockSynth struct {
	mu    sync.Mutex
	audio []byte
	err   error
	calls int
}

func (m *mockSynth) Synthesize(_ context.Context, text, voice string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.audio, m.err
}

func (m *mockSynth) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockPlayer records the order of chime and playback calls.
type mockPlayer struct {
	mu       sync.Mutex
	events   []string
	chimeErr error
	playErr  error
}

func (m *mockPlayer) PlayChime() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "chime")
	return m.chimeErr
}

func (m *mockPlayer) Play(_ []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, "play")
	return m.playErr
}

func (m *mockPlayer) eventLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	copy(out, m.events)
	return out
}

// mockFallback records spoken fallback text.
type mockFallback struct {
	mu     sync.Mutex
	spoken []string
	err    error
}

func (m *mockFallback) Speak(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spoken = append(m.spoken, text)
	return m.err
}

func (m *mockFallback) lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.spoken))
	copy(out, m.spoken)
	return out
}

// memCache is a map-backed Cache for tests.
type memCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func newMemCache() *memCache { return &memCache{m: make(map[string][]byte)} }

func (c *memCache) Get(voice, text string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.m[voice+"|"+text]
	return a, ok
}

func (c *memCache) Put(voice, text string, audio []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[voice+"|"+text] = audio
}

var testEntry = domain.ScheduleEntry{
	ID:        "e1",
	Period:    1,
	StartTime: "07:00",
	EndTime:   "07:45",
	Teacher:   "Budi Santoso",
	Honorific: domain.HonorificMale,
	Subject:   "Matematika",
	ClassName: "X-A",
	IsActive:  true,
}

var testSettings = domain.Settings{
	SchoolName:         "SMA Harapan Bangsa",
	AutoTriggerEnabled: true,
	VoiceName:          domain.DefaultVoice,
}

func newTestSequencer(synth *mockSynth, player *mockPlayer, fb *mockFallback, opts ...SequencerOption) *Sequencer {
	return NewSequencer(synth, player, fb, logger.New(logger.LevelOff, nil), opts...)
}

func TestAnnounceChimeBeforeSpeech(t *testing.T) {
	synth := &mockSynth{audio: []byte{1, 2, 3}}
	player := &mockPlayer{}
	fb := &mockFallback{}
	seq := newTestSequencer(synth, player, fb)

	if err := seq.Announce(context.Background(), testEntry, testSettings); err != nil {
		t.Fatalf("announce: %v", err)
	}

	events := player.eventLog()
	if len(events) != 2 || events[0] != "chime" || events[1] != "play" {
		t.Errorf("events = %v, want [chime play]", events)
	}
	if len(fb.lines()) != 0 {
		t.Error("fallback must not run on the happy path")
	}
}

func TestAnnounceChimeFailureContinues(t *testing.T) {
	synth := &mockSynth{audio: []byte{1}}
	player := &mockPlayer{chimeErr: errors.New("no device")}
	fb := &mockFallback{}
	seq := newTestSequencer(synth, player, fb)

	if err := seq.Announce(context.Background(), testEntry, testSettings); err != nil {
		t.Fatalf("announce: %v", err)
	}

	events := player.eventLog()
	if len(events) != 2 || events[1] != "play" {
		t.Errorf("events = %v, want speech after failed chime", events)
	}
}

func TestAnnounceSynthFailureFallsBack(t *testing.T) {
	synth := &mockSynth{err: errors.New("service down")}
	player := &mockPlayer{}
	fb := &mockFallback{}
	seq := newTestSequencer(synth, player, fb)

	if err := seq.Announce(context.Background(), testEntry, testSettings); err != nil {
		t.Fatalf("announce: %v", err)
	}

	lines := fb.lines()
	if len(lines) != 1 {
		t.Fatalf("fallback lines = %d, want 1", len(lines))
	}
	// The fallback narrates the same composed text.
	if lines[0] != ComposeAnnouncement(testSettings.SchoolName, testEntry) {
		t.Errorf("fallback text = %q", lines[0])
	}
}

func TestAnnounceChimesWithoutSynthesis(t *testing.T) {
	// A machine with a working audio device but no synthesis
	// credentials still gets the chime; only the spoken half degrades
	// to the fallback narration.
	synth := &mockSynth{err: domain.ErrSynthUnavailable}
	player := &mockPlayer{}
	fb := &mockFallback{}
	seq := newTestSequencer(synth, player, fb)

	if err := seq.Announce(context.Background(), testEntry, testSettings); err != nil {
		t.Fatalf("announce: %v", err)
	}

	events := player.eventLog()
	if len(events) != 1 || events[0] != "chime" {
		t.Errorf("events = %v, want [chime]", events)
	}
	if len(fb.lines()) != 1 {
		t.Error("fallback narration must replace the spoken half")
	}
}

func TestAnnounceEmptyAudioFallsBack(t *testing.T) {
	synth := &mockSynth{audio: nil}
	player := &mockPlayer{}
	fb := &mockFallback{}
	seq := newTestSequencer(synth, player, fb)

	if err := seq.Announce(context.Background(), testEntry, testSettings); err != nil {
		t.Fatalf("announce: %v", err)
	}
	if len(fb.lines()) != 1 {
		t.Error("empty synthesis output must route to the fallback")
	}
	events := player.eventLog()
	for _, ev := range events {
		if ev == "play" {
			t.Error("empty audio must never reach the player")
		}
	}
}

func TestAnnouncePlaybackFailureFallsBack(t *testing.T) {
	synth := &mockSynth{audio: []byte{1}}
	player := &mockPlayer{playErr: errors.New("device busy")}
	fb := &mockFallback{}
	seq := newTestSequencer(synth, player, fb)

	if err := seq.Announce(context.Background(), testEntry, testSettings); err != nil {
		t.Fatalf("announce: %v", err)
	}
	if len(fb.lines()) != 1 {
		t.Error("playback failure must route to the fallback")
	}
}

func TestAnnounceFallbackFailureSwallowed(t *testing.T) {
	synth := &mockSynth{err: errors.New("down")}
	player := &mockPlayer{}
	fb := &mockFallback{err: errors.New("espeak missing")}
	seq := newTestSequencer(synth, player, fb)

	// Even a total failure chain reports success; the schedule must
	// keep running.
	if err := seq.Announce(context.Background(), testEntry, testSettings); err != nil {
		t.Errorf("announce: %v, want nil", err)
	}
}

func TestAnnounceCancelledContext(t *testing.T) {
	synth := &mockSynth{audio: []byte{1}}
	player := &mockPlayer{}
	fb := &mockFallback{}
	seq := newTestSequencer(synth, player, fb)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := seq.Announce(ctx, testEntry, testSettings); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if synth.callCount() != 0 {
		t.Error("cancelled announcement must not synthesize")
	}
}

func TestAnnounceUsesCache(t *testing.T) {
	synth := &mockSynth{audio: []byte{9, 9}}
	player := &mockPlayer{}
	fb := &mockFallback{}
	cache := newMemCache()
	seq := newTestSequencer(synth, player, fb, WithCache(cache))

	ctx := context.Background()
	if err := seq.Announce(ctx, testEntry, testSettings); err != nil {
		t.Fatalf("first announce: %v", err)
	}
	if err := seq.Announce(ctx, testEntry, testSettings); err != nil {
		t.Fatalf("second announce: %v", err)
	}

	if got := synth.callCount(); got != 1 {
		t.Errorf("synth calls = %d, want 1 (second run served from cache)", got)
	}
}

func TestComposeAnnouncementContainsEveryField(t *testing.T) {
	text := ComposeAnnouncement("SMA Harapan Bangsa", testEntry)

	for _, want := range []string{
		"SMA Harapan Bangsa",
		"Period 1",
		"07:00",
		"Bapak Teacher Budi Santoso",
		"Matematika",
		"X-A",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("announcement missing %q: %s", want, text)
		}
	}
}

func TestComposeAnnouncementFemaleHonorific(t *testing.T) {
	e := testEntry
	e.Teacher = "Siti Rahma"
	e.Honorific = domain.HonorificFemale

	text := ComposeAnnouncement("SMA Harapan Bangsa", e)
	if !strings.Contains(text, "Ibu Teacher Siti Rahma") {
		t.Errorf("announcement missing female honorific: %s", text)
	}
}
