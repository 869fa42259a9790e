package announce

import (
	"context"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// Compile-time interface check.
var _ domain.Announcer = (*Sequencer)(nil)

// SequencerOption configures the Sequencer.
type SequencerOption func(*Sequencer)

// WithCache attaches an audio cache so identical announcements are not
// re-synthesized every school day. The cache interface is satisfied by
// speech.AudioCache.
func WithCache(c Cache) SequencerOption {
	return func(s *Sequencer) {
		s.cache = c
	}
}

// Cache is the minimal caching contract the sequencer needs.
type Cache interface {
	Get(voice, text string) ([]byte, bool)
	Put(voice, text string, audio []byte)
}

// Sequencer produces the audible bell event for one matched entry.
// The sequence is strictly ordered: chime, compose, synthesize, play.
// A chime failure is swallowed and the sequence continues; a synthesis
// or playback failure routes the same composed text to the on-device
// fallback speaker. The fallback's own failure is only logged.
type Sequencer struct {
	synth    domain.Synthesizer
	player   domain.AudioPlayer
	fallback domain.FallbackSpeaker
	cache    Cache
	log      *logger.Logger
}

// NewSequencer creates an announcement sequencer.
func NewSequencer(synth domain.Synthesizer, player domain.AudioPlayer, fallback domain.FallbackSpeaker, log *logger.Logger, opts ...SequencerOption) *Sequencer {
	s := &Sequencer{
		synth:    synth,
		player:   player,
		fallback: fallback,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Announce runs the full sequence for one entry. It never returns an
// error for synthesis or playback problems - those degrade to the
// fallback narration. Only context cancellation is reported.
func (s *Sequencer) Announce(ctx context.Context, entry domain.ScheduleEntry, settings domain.Settings) error {
	if err := s.player.PlayChime(); err != nil {
		// The bell still speaks even when the chime can't play.
		s.log.Warn("chime playback failed, continuing: %v", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	text := ComposeAnnouncement(settings.SchoolName, entry)
	s.log.Info("announcing period %d at %s (%s)", entry.Period, entry.StartTime, entry.ClassName)

	audio, err := s.synthesize(ctx, text, settings.VoiceName)
	if err != nil {
		s.log.Error("synthesis failed: %v", err)
		s.narrateFallback(ctx, text)
		return ctx.Err()
	}

	if err := s.player.Play(audio); err != nil {
		s.log.Error("announcement playback failed: %v", err)
		s.narrateFallback(ctx, text)
	}
	return ctx.Err()
}

// synthesize resolves audio for the text, consulting the cache first.
// An empty payload counts as failure.
func (s *Sequencer) synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if s.cache != nil {
		if audio, ok := s.cache.Get(voice, text); ok {
			return audio, nil
		}
	}

	audio, err := s.synth.Synthesize(ctx, text, voice)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, domain.ErrEmptyAudio
	}

	if s.cache != nil {
		s.cache.Put(voice, text, audio)
	}
	return audio, nil
}

// narrateFallback reads the composed text through the on-device speech
// capability. Best effort: its failure is logged, never propagated.
func (s *Sequencer) narrateFallback(ctx context.Context, text string) {
	if err := s.fallback.Speak(ctx, text); err != nil {
		s.log.Error("fallback narration failed: %v", err)
	}
}
