package storage

import (
	"context"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// Queue applies mirror writes through a single background worker in
// submission order, so a rapid burst of edits cannot land an older
// full-schedule snapshot after a newer one. Submissions block only when
// the buffer is full.
type Queue struct {
	mirror *Mirror
	jobs   chan func(context.Context)
	log    *logger.Logger
}

// NewQueue wraps a mirror with an ordered write queue. Call Start
// before submitting.
func NewQueue(m *Mirror, log *logger.Logger) *Queue {
	return &Queue{
		mirror: m,
		jobs:   make(chan func(context.Context), 64),
		log:    log,
	}
}

// Mirror returns the wrapped mirror, for read-side queries.
func (q *Queue) Mirror() *Mirror { return q.mirror }

// Start launches the worker. It drains jobs until ctx is cancelled.
func (q *Queue) Start(ctx context.Context) {
	go q.loop(ctx)
}

func (q *Queue) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			q.log.Debug("mirror queue stopped (%d jobs pending)", len(q.jobs))
			return
		case job := <-q.jobs:
			job(ctx)
		}
	}
}

// EntrySaved queues one added or edited entry plus a schedule snapshot.
func (q *Queue) EntrySaved(entry domain.ScheduleEntry, snapshot []domain.ScheduleEntry) {
	q.jobs <- func(ctx context.Context) { q.mirror.EntrySaved(ctx, entry, snapshot) }
}

// EntryDeleted queues one deletion plus the remaining schedule snapshot.
func (q *Queue) EntryDeleted(id string, snapshot []domain.ScheduleEntry) {
	q.jobs <- func(ctx context.Context) { q.mirror.EntryDeleted(ctx, id, snapshot) }
}

// SettingsChanged queues a settings write.
func (q *Queue) SettingsChanged(settings domain.Settings) {
	q.jobs <- func(ctx context.Context) { q.mirror.SettingsChanged(ctx, settings) }
}
