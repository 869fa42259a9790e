package speech

import (
	"context"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// Compile-time interface checks.
var (
	_ domain.Synthesizer = (*NoOpSynthesizer)(nil)
	_ domain.AudioPlayer = (*NoOpPlayer)(nil)
)

// NoOpSynthesizer is used when Azure credentials are missing. Every
// call fails, which routes announcements to the fallback narration
// instead of crashing the process.
type NoOpSynthesizer struct {
	log *logger.Logger
}

// NewNoOpSynthesizer creates a synthesizer that always fails.
func NewNoOpSynthesizer(log *logger.Logger) *NoOpSynthesizer {
	return &NoOpSynthesizer{log: log}
}

// Synthesize returns ErrSynthUnavailable.
func (n *NoOpSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	n.log.Debug("synth no-op: would synthesize %d chars with %s", len(text), voice)
	return nil, domain.ErrSynthUnavailable
}

// NoOpPlayer is used when the audio device could not be initialized.
// Playback errors are handled by the sequencer's fallback path.
type NoOpPlayer struct {
	log *logger.Logger
}

// NewNoOpPlayer creates a player that always fails.
func NewNoOpPlayer(log *logger.Logger) *NoOpPlayer {
	return &NoOpPlayer{log: log}
}

// Play reports the audio device as unavailable.
func (n *NoOpPlayer) Play(wav []byte) error {
	n.log.Debug("player no-op: would play %d bytes", len(wav))
	return domain.ErrSynthUnavailable
}

// PlayChime reports the audio device as unavailable.
func (n *NoOpPlayer) PlayChime() error {
	n.log.Debug("player no-op: would play chime")
	return domain.ErrSynthUnavailable
}
