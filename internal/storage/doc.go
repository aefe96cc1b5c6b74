package storage

// Package storage is the persistence layer, backed by an embedded SQLite
// database (modernc.org/sqlite, no cgo).
//
// It holds:
//   - Reminder schedules and their trigger state (DueSchedules / MarkTriggered)
//   - Mood check-ins, activity logs and assessment results
//   - Reminder event history (fired / mark-failed)
//
// All timestamps are stored as RFC 3339 text in the writer's local offset.
