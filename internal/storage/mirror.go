package storage

import (
	"context"
	"errors"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// Mirror is the persistence adapter. It reads the startup state
// (remote first, local snapshot second, built-in defaults last) and
// write-throughs every mutation: one row at a time to the remote
// backend, whole-state snapshots to the local store. Remote write
// failures are logged and swallowed - in-memory state stays
// authoritative for the running session.
//
// remote may be nil: the adapter then runs local-only, which is the
// expected state on machines without DB_* configuration.
type Mirror struct {
	remote domain.Backend // nil = local-only
	local  *LocalStore
	log    *logger.Logger
}

// NewMirror creates the persistence adapter. Pass remote == nil for
// local-only persistence.
func NewMirror(remote domain.Backend, local *LocalStore, log *logger.Logger) *Mirror {
	return &Mirror{remote: remote, local: local, log: log}
}

// RemoteEnabled reports whether a remote backend was configured.
func (m *Mirror) RemoteEnabled() bool { return m.remote != nil }

// Load resolves the startup state. Never fails: every tier degrading
// ends at built-in defaults.
func (m *Mirror) Load(ctx context.Context) ([]domain.ScheduleEntry, domain.Settings) {
	entries := m.loadSchedule(ctx)
	settings := m.loadSettings(ctx)
	return entries, settings
}

func (m *Mirror) loadSchedule(ctx context.Context) []domain.ScheduleEntry {
	if m.remote != nil {
		entries, err := m.remote.LoadSchedule(ctx)
		if err != nil {
			m.log.Warn("remote schedule read failed, falling back to local: %v", err)
		} else if len(entries) > 0 {
			m.log.Info("loaded %d schedule entries from remote store", len(entries))
			return entries
		}
		// Zero remote rows also falls through to the local snapshot:
		// an empty remote table is indistinguishable from a fresh one.
	}

	entries, err := m.local.LoadSchedule()
	if err != nil {
		if !errors.Is(err, domain.ErrNoSnapshot) {
			m.log.Error("local schedule snapshot unreadable: %v", err)
		}
		m.log.Info("no stored schedule, starting empty")
		return nil
	}
	m.log.Info("loaded %d schedule entries from local snapshot", len(entries))
	return entries
}

func (m *Mirror) loadSettings(ctx context.Context) domain.Settings {
	if m.remote != nil {
		settings, err := m.remote.LoadSettings(ctx)
		if err == nil {
			return settings
		}
		m.log.Warn("remote settings read failed, falling back to local: %v", err)
	}

	settings, err := m.local.LoadSettings()
	if err != nil {
		if !errors.Is(err, domain.ErrNoSnapshot) {
			m.log.Error("local settings snapshot unreadable: %v", err)
		}
		m.log.Info("seeding default settings")
		return domain.DefaultSettings()
	}
	return settings
}

// EntrySaved mirrors one added or edited entry plus the full current
// schedule. Call after the in-memory mutation, typically from a
// background goroutine.
func (m *Mirror) EntrySaved(ctx context.Context, entry domain.ScheduleEntry, snapshot []domain.ScheduleEntry) {
	if m.remote != nil {
		if err := m.remote.SaveEntry(ctx, entry); err != nil {
			m.log.Warn("remote entry write failed (local state remains authoritative): %v", err)
		}
	}
	if err := m.local.SaveSchedule(snapshot); err != nil {
		m.log.Error("local schedule snapshot failed: %v", err)
	}
}

// EntryDeleted mirrors one deletion plus the full remaining schedule.
func (m *Mirror) EntryDeleted(ctx context.Context, id string, snapshot []domain.ScheduleEntry) {
	if m.remote != nil {
		if err := m.remote.DeleteEntry(ctx, id); err != nil {
			m.log.Warn("remote entry delete failed (local state remains authoritative): %v", err)
		}
	}
	if err := m.local.SaveSchedule(snapshot); err != nil {
		m.log.Error("local schedule snapshot failed: %v", err)
	}
}

// SettingsChanged mirrors the settings singleton to both tiers.
func (m *Mirror) SettingsChanged(ctx context.Context, settings domain.Settings) {
	if m.remote != nil {
		if err := m.remote.SaveSettings(ctx, settings); err != nil {
			m.log.Warn("remote settings write failed (local state remains authoritative): %v", err)
		}
	}
	if err := m.local.SaveSettings(settings); err != nil {
		m.log.Error("local settings snapshot failed: %v", err)
	}
}
