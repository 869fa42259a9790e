package domain

import "context"

// Synthesizer converts announcement text into encoded audio (WAV bytes)
// using one of the supported voices. Implementations can be cloud TTS or
// the no-op used when credentials are missing.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// AudioPlayer plays encoded audio on the output device. Play blocks
// until playback finishes or fails.
type AudioPlayer interface {
	Play(wav []byte) error
	PlayChime() error
}

// FallbackSpeaker is the on-device speech capability used when
// synthesis or playback fails. Best effort: callers log its error and
// move on.
type FallbackSpeaker interface {
	Speak(ctx context.Context, text string) error
}

// Announcer runs the full chime-then-speech sequence for one matched
// schedule entry. The entry is passed by value so later mutations to
// the schedule cannot affect an in-flight announcement.
type Announcer interface {
	Announce(ctx context.Context, entry ScheduleEntry, settings Settings) error
}

// Backend is the remote persistence contract. Implementations mirror
// the in-memory state to a durable store; the adapter selects a backend
// (or none) once at startup and the core depends only on this interface.
type Backend interface {
	LoadSchedule(ctx context.Context) ([]ScheduleEntry, error)
	SaveEntry(ctx context.Context, entry ScheduleEntry) error
	DeleteEntry(ctx context.Context, id string) error
	LoadSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// CommandParser converts raw console input into structured commands.
type CommandParser interface {
	Parse(ctx context.Context, input string) (*Command, error)
}
