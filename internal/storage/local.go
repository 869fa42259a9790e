package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// Snapshot slot names. The local tier stores the whole serialized state
// under two fixed keys rather than row-per-entry - it is a backup, not
// a queryable database.
const (
	slotSchedule = "schedule"
	slotSettings = "settings"
)

const localSchema = `
CREATE TABLE IF NOT EXISTS snapshots (
	slot       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
);`

// LocalStore is the durable fallback tier: a small SQLite file holding
// the serialized schedule and settings. Read once at startup, rewritten
// after every mutation.
type LocalStore struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewLocalStore opens (creating if needed) the snapshot database at the
// given path.
func NewLocalStore(path string, log *logger.Logger) (*LocalStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating snapshot directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}

	if _, err := db.Exec(localSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshot schema: %w", err)
	}

	log.Debug("local snapshot store open at %s", path)
	return &LocalStore{db: db, log: log}, nil
}

// Close releases the snapshot database.
func (l *LocalStore) Close() error {
	return l.db.Close()
}

// SaveSchedule mirrors the entire schedule into the schedule slot.
func (l *LocalStore) SaveSchedule(entries []domain.ScheduleEntry) error {
	return l.writeSlot(slotSchedule, entries)
}

// LoadSchedule restores the schedule snapshot. Returns ErrNoSnapshot
// when the slot has never been written.
func (l *LocalStore) LoadSchedule() ([]domain.ScheduleEntry, error) {
	var entries []domain.ScheduleEntry
	if err := l.readSlot(slotSchedule, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SaveSettings mirrors the settings into the settings slot.
func (l *LocalStore) SaveSettings(s domain.Settings) error {
	return l.writeSlot(slotSettings, s)
}

// LoadSettings restores the settings snapshot. Returns ErrNoSnapshot
// when the slot has never been written.
func (l *LocalStore) LoadSettings() (domain.Settings, error) {
	var s domain.Settings
	if err := l.readSlot(slotSettings, &s); err != nil {
		return domain.Settings{}, err
	}
	return s, nil
}

func (l *LocalStore) writeSlot(slot string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("serializing %s snapshot: %w", slot, err)
	}

	_, err = l.db.Exec(`
		INSERT INTO snapshots (slot, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		slot, string(payload), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing %s snapshot: %w", slot, err)
	}

	l.log.Debug("snapshot written: %s (%d bytes)", slot, len(payload))
	return nil
}

func (l *LocalStore) readSlot(slot string, v any) error {
	var payload string
	err := l.db.Get(&payload, `SELECT payload FROM snapshots WHERE slot = ?`, slot)
	if err != nil {
		return domain.ErrNoSnapshot
	}

	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("decoding %s snapshot: %w", slot, err)
	}
	return nil
}
