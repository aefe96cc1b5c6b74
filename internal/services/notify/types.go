package notify

import (
	"context"
	"time"
)

// Notification is a user-facing reminder message.
type Notification struct {
	Title string
	Body  string

	// Origin, for history and logging.
	ScheduleID string
	SubjectID  string
}

// Sink delivers a notification to the user. Implementations must be safe
// for sequential reuse; delivery failure is reported, never fatal.
type Sink interface {
	Name() string
	Send(ctx context.Context, n Notification) error
}

// Config tunes the notification pipeline.
type Config struct {
	RatePerSec  int // token bucket; default 1
	HistorySize int // default 100
}

func (c Config) withDefaults() Config {
	if c.RatePerSec <= 0 {
		c.RatePerSec = 1
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 100
	}
	return c
}

// HistoryItem records one delivery attempt (for status views).
type HistoryItem struct {
	At         time.Time
	ScheduleID string
	Title      string
	Sink       string
	Error      string
}
