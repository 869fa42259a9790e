// Package storage bridges the in-memory schedule and settings to
// durable stores: a remote Postgres backend when configured, and a
// local SQLite snapshot that works as the offline fallback tier.
package storage

import (
	"context"
	"fmt"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// Compile-time interface check.
var _ domain.Backend = (*RemoteStore)(nil)

// settingsRowID is the fixed primary key of the singleton settings row.
const settingsRowID = 1

// scheduleRow is the relational shape of a schedule entry.
type scheduleRow struct {
	ID        string `gorm:"primaryKey"`
	Period    int    `gorm:"not null"`
	StartTime string `gorm:"index;not null"`
	EndTime   string `gorm:"not null"`
	Teacher   string
	Honorific string
	Subject   string
	ClassName string
	IsActive  bool
}

func (scheduleRow) TableName() string { return "schedules" }

// settingsRow is the singleton settings record, upserted by fixed id.
type settingsRow struct {
	ID                 int `gorm:"primaryKey"`
	SchoolName         string
	AutoTriggerEnabled bool
	VoiceName          string
}

func (settingsRow) TableName() string { return "settings" }

// RemoteStore mirrors state to a remote Postgres database. Write
// failures are the caller's business to log and swallow; a running
// session never depends on the remote being reachable.
type RemoteStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// RemoteDSNFromEnv assembles a Postgres DSN from the DB_* environment
// variables. Returns false when DB_HOST is unset - the expected state
// on machines without a remote backend.
func RemoteDSNFromEnv() (string, bool) {
	host := os.Getenv("DB_HOST")
	if host == "" {
		return "", false
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))
	return dsn, true
}

// NewRemoteStore connects to the remote database and migrates the two
// tables. Returns an error instead of exiting so the caller can degrade
// to local-only persistence.
func NewRemoteStore(dsn string, log *logger.Logger) (*RemoteStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to remote store: %w", err)
	}

	if err := db.AutoMigrate(&scheduleRow{}, &settingsRow{}); err != nil {
		return nil, fmt.Errorf("migrating remote store: %w", err)
	}

	log.Info("remote store connected")
	return &RemoteStore{db: db, log: log}, nil
}

// LoadSchedule returns all entries ordered ascending by start time.
func (r *RemoteStore) LoadSchedule(ctx context.Context) ([]domain.ScheduleEntry, error) {
	var rows []scheduleRow
	if err := r.db.WithContext(ctx).Order("start_time asc, id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("loading schedule: %w", err)
	}

	entries := make([]domain.ScheduleEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.ScheduleEntry{
			ID:        row.ID,
			Period:    row.Period,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			Teacher:   row.Teacher,
			Honorific: domain.Honorific(row.Honorific),
			Subject:   row.Subject,
			ClassName: row.ClassName,
			IsActive:  row.IsActive,
		}
	}
	return entries, nil
}

// SaveEntry inserts or updates one schedule row.
func (r *RemoteStore) SaveEntry(ctx context.Context, e domain.ScheduleEntry) error {
	row := scheduleRow{
		ID:        e.ID,
		Period:    e.Period,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Teacher:   e.Teacher,
		Honorific: string(e.Honorific),
		Subject:   e.Subject,
		ClassName: e.ClassName,
		IsActive:  e.IsActive,
	}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("saving entry %s: %w", e.ID, err)
	}
	return nil
}

// DeleteEntry removes one schedule row by id. Absent ids are a no-op.
func (r *RemoteStore) DeleteEntry(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&scheduleRow{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("deleting entry %s: %w", id, err)
	}
	return nil
}

// LoadSettings reads the singleton settings row.
func (r *RemoteStore) LoadSettings(ctx context.Context) (domain.Settings, error) {
	var row settingsRow
	err := r.db.WithContext(ctx).First(&row, settingsRowID).Error
	if err != nil {
		return domain.Settings{}, fmt.Errorf("loading settings: %w", err)
	}

	return domain.Settings{
		SchoolName:         row.SchoolName,
		AutoTriggerEnabled: row.AutoTriggerEnabled,
		VoiceName:          row.VoiceName,
	}, nil
}

// SaveSettings upserts the singleton settings row (fixed id).
func (r *RemoteStore) SaveSettings(ctx context.Context, s domain.Settings) error {
	row := settingsRow{
		ID:                 settingsRowID,
		SchoolName:         s.SchoolName,
		AutoTriggerEnabled: s.AutoTriggerEnabled,
		VoiceName:          s.VoiceName,
	}
	if err := r.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
