// Package domain defines the core types and interfaces for the bell
// scheduler. All other packages depend on domain; domain depends on nothing.
package domain

import "sort"

// Honorific is the form of address attached to a teacher's name in the
// spoken announcement. Exactly two values exist.
type Honorific string

const (
	// HonorificMale is the male form of address.
	HonorificMale Honorific = "Bapak"
	// HonorificFemale is the female form of address.
	HonorificFemale Honorific = "Ibu"
)

// ParseHonorific maps user input to an Honorific. Returns false for
// anything outside the two-value set.
func ParseHonorific(s string) (Honorific, bool) {
	switch s {
	case "Bapak", "bapak", "bpk", "pak", "male", "mr":
		return HonorificMale, true
	case "Ibu", "ibu", "bu", "female", "mrs", "ms":
		return HonorificFemale, true
	}
	return "", false
}

// ScheduleEntry is one class period in the bell schedule. StartTime and
// EndTime are zero-padded "HH:MM" wall-clock strings, so lexicographic
// order equals chronological order within a day.
type ScheduleEntry struct {
	ID        string    `json:"id"`
	Period    int       `json:"period"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Teacher   string    `json:"teacher"`
	Honorific Honorific `json:"honorific"`
	Subject   string    `json:"subject"`
	ClassName string    `json:"class_name"`
	IsActive  bool      `json:"is_active"`
}

// SortEntries orders entries ascending by StartTime, ties broken by ID.
// The order is stable and deterministic: on duplicate start times the
// entry with the lexicographically smaller ID comes first.
func SortEntries(entries []ScheduleEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StartTime != entries[j].StartTime {
			return entries[i].StartTime < entries[j].StartTime
		}
		return entries[i].ID < entries[j].ID
	})
}

// NextBell returns the active entry with the smallest StartTime strictly
// greater than nowMinute ("HH:MM"), or false if none exists today.
// Entries must already be sorted (see SortEntries).
func NextBell(entries []ScheduleEntry, nowMinute string) (ScheduleEntry, bool) {
	for _, e := range entries {
		if e.IsActive && e.StartTime > nowMinute {
			return e, true
		}
	}
	return ScheduleEntry{}, false
}
