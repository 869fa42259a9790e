// Package schedule holds the in-memory schedule collection and the
// singleton settings state. Both are the authoritative state for a
// running session; persistence mirrors them, it never owns them.
package schedule

import (
	"sync"

	"github.com/google/uuid"

	"github.com/hammamikhairi/schoolbell/internal/domain"
	"github.com/hammamikhairi/schoolbell/internal/logger"
)

// Store is the in-memory ordered collection of schedule entries.
// Safe for concurrent access. The sorted view is rebuilt on demand;
// mutations are synchronous and immediately visible to readers.
type Store struct {
	mu      sync.RWMutex
	entries map[string]domain.ScheduleEntry
	log     *logger.Logger
}

// NewStore creates an empty schedule store.
func NewStore(log *logger.Logger) *Store {
	return &Store{
		entries: make(map[string]domain.ScheduleEntry),
		log:     log,
	}
}

// Seed replaces the whole collection, used once at startup with the
// entries the persistence adapter loaded.
func (s *Store) Seed(entries []domain.ScheduleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]domain.ScheduleEntry, len(entries))
	for _, e := range entries {
		s.entries[e.ID] = e
	}
	s.log.Debug("schedule seeded with %d entries", len(entries))
}

// Add assigns a fresh unique id, marks the entry active, and inserts it.
// Returns the stored entry.
func (s *Store) Add(e domain.ScheduleEntry) domain.ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.ID = uuid.NewString()
	e.IsActive = true
	s.entries[e.ID] = e

	s.log.Info("added period %d at %s (%s, %s)", e.Period, e.StartTime, e.Subject, e.ClassName)
	return e
}

// Update replaces the entry matching e.ID and returns the stored
// value. Returns ErrNotFound if no such entry exists.
func (s *Store) Update(e domain.ScheduleEntry) (domain.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[e.ID]; !ok {
		return domain.ScheduleEntry{}, domain.ErrNotFound
	}
	s.entries[e.ID] = e
	s.log.Debug("updated entry %s", e.ID)
	return e, nil
}

// Remove deletes the entry with the given id. Returns ErrNotFound if absent.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.entries, id)
	s.log.Debug("removed entry %s", id)
	return nil
}

// SetActive flips the active flag on the entry with the given id and
// returns the stored value. Inactive entries stay in the collection
// but are excluded from trigger matching.
func (s *Store) SetActive(id string, active bool) (domain.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return domain.ScheduleEntry{}, domain.ErrNotFound
	}
	e.IsActive = active
	s.entries[id] = e
	s.log.Debug("entry %s active=%v", id, active)
	return e, nil
}

// Get returns the entry with the given id.
func (s *Store) Get(id string) (domain.ScheduleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return domain.ScheduleEntry{}, domain.ErrNotFound
	}
	return e, nil
}

// Sorted returns a copy of all entries ascending by start time, ties
// broken by id. Callers own the returned slice.
func (s *Store) Sorted() []domain.ScheduleEntry {
	s.mu.RLock()
	out := make([]domain.ScheduleEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	s.mu.RUnlock()

	domain.SortEntries(out)
	return out
}

// NextBell returns the active entry that rings next after nowMinute
// ("HH:MM"), or false when no later bell exists today.
func (s *Store) NextBell(nowMinute string) (domain.ScheduleEntry, bool) {
	return domain.NextBell(s.Sorted(), nowMinute)
}

// Len returns the number of entries, active or not.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
