package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// Compile-time interface check.
var _ domain.FallbackSpeaker = (*EspeakSpeaker)(nil)

// FallbackLocale is the fixed spoken-language locale for the on-device
// fallback voice.
const FallbackLocale = "id"

// EspeakSpeaker reads text aloud through a local espeak-ng binary. It
// is the last resort when cloud synthesis or playback fails, so its own
// errors are reported but nothing depends on its success.
type EspeakSpeaker struct {
	binary string
	locale string
	log    *logger.Logger
}

// NewEspeakSpeaker creates the fallback speaker. binary is the
// espeak-ng executable name or path; locale is an espeak voice code.
func NewEspeakSpeaker(binary, locale string, log *logger.Logger) *EspeakSpeaker {
	if binary == "" {
		binary = "espeak-ng"
	}
	if locale == "" {
		locale = FallbackLocale
	}
	return &EspeakSpeaker{binary: binary, locale: locale, log: log}
}

// Speak blocks until the utterance finishes. The context cancels the
// child process.
func (s *EspeakSpeaker) Speak(ctx context.Context, text string) error {
	s.log.Debug("espeak fallback: speaking %d chars (locale=%s)", len(text), s.locale)

	cmd := exec.CommandContext(ctx, s.binary, "-v", s.locale, text)
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("espeak: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
