package storage

import (
	"errors"
	"time"
)

// Config configures the SQLite store.
type Config struct {
	Path        string
	BusyTimeout time.Duration // 0 means default (5s)
}

// ErrConflict is returned when a guarded update matched no row, e.g. a
// MarkTriggered that would move last_triggered_at backwards.
var ErrConflict = errors.New("storage: conflicting update")

// MoodEntry is a single mood check-in.
type MoodEntry struct {
	ID        string
	Score     int // 1-10
	Note      string
	At        time.Time
	CreatedAt time.Time
	DeletedAt *time.Time
}

// ActivityEntry logs an activity the user did (walk, sleep, meditation, ...).
type ActivityEntry struct {
	ID        string
	Name      string
	Minutes   int
	Note      string
	At        time.Time
	CreatedAt time.Time
	DeletedAt *time.Time
}

// AssessmentResult stores one completed clinical assessment.
type AssessmentResult struct {
	ID               string
	AssessmentTypeID string // e.g. "phq-9", "gad-7"; opaque to this layer
	Score            int
	At               time.Time
	CreatedAt        time.Time
	DeletedAt        *time.Time
}

// ReminderEvent records one poller outcome for a schedule.
// Kept compact and schema-stable.
type ReminderEvent struct {
	At         time.Time
	ScheduleID string
	SubjectID  string
	Outcome    string // "fired" | "notify_failed" | "mark_failed"
	Error      string
}
