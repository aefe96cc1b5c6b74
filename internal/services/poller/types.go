package poller

import (
	"context"
	"time"

	"mindtrack/internal/schedule"
	"mindtrack/internal/services/notify"
)

// Config controls the poller service.
type Config struct {
	Enabled     bool
	Interval    time.Duration // default 60s
	HistorySize int           // default 200
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 200
	}
	return c
}

// Store is the slice of the storage layer the poller needs.
type Store interface {
	DueSchedules(ctx context.Context, now time.Time) ([]schedule.Schedule, error)
	MarkTriggered(ctx context.Context, id string, now time.Time) error
}

// Notifier delivers reminder notifications. Failure is non-fatal.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// Event type names published on the bus.
const (
	EventFired        = "reminder.fired"
	EventNotifyFailed = "reminder.notify_failed"
	EventMarkFailed   = "reminder.mark_failed"
)

// ReminderEvent is the bus payload for one poller outcome.
type ReminderEvent struct {
	ScheduleID string
	SubjectID  string
	At         time.Time
	Error      string
}

// HistoryItem records one fired reminder for status views.
type HistoryItem struct {
	At         time.Time
	ScheduleID string
	SubjectID  string
	NotifyErr  string
	MarkErr    string
}
