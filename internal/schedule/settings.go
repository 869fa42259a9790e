package schedule

import (
	"sync"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// SettingsState holds the singleton settings. Safe for concurrent use.
type SettingsState struct {
	mu      sync.RWMutex
	current domain.Settings
	log     *logger.Logger
}

// NewSettingsState creates the settings holder with an initial value,
// normally whatever the persistence adapter loaded (or defaults).
func NewSettingsState(initial domain.Settings, log *logger.Logger) *SettingsState {
	return &SettingsState{current: initial, log: log}
}

// Current returns a copy of the settings.
func (s *SettingsState) Current() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetSchoolName updates the school name used in the announcement greeting.
func (s *SettingsState) SetSchoolName(name string) domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.SchoolName = name
	s.log.Info("school name set to %q", name)
	return s.current
}

// SetAutoTrigger flips the master switch for automatic trigger evaluation.
func (s *SettingsState) SetAutoTrigger(enabled bool) domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.AutoTriggerEnabled = enabled
	s.log.Info("auto trigger enabled=%v", enabled)
	return s.current
}

// SetVoice changes the announcement voice. Rejects names outside the
// closed voice set.
func (s *SettingsState) SetVoice(name string) (domain.Settings, error) {
	if !domain.IsValidVoice(name) {
		return domain.Settings{}, domain.ErrInvalidVoice
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.VoiceName = name
	s.log.Info("voice set to %s", name)
	return s.current, nil
}
