package config

import (
	"fmt"
	"strings"
)

// Config is the on-disk configuration (JSON or YAML).
//
// All durations are Go duration strings (e.g. "500ms", "60s", "24h").
// Unknown keys are rejected so typos fail loudly instead of silently
// reverting a knob to its default.
type Config struct {
	Logging LoggingConfig `json:"logging"`
	Storage StorageConfig `json:"storage"`
	Poller  PollerConfig  `json:"poller"`

	Notify      NotifyConfig      `json:"notify,omitempty"`
	Maintenance MaintenanceConfig `json:"maintenance,omitempty"`
}

type LoggingConfig struct {
	Level   string        `json:"level,omitempty"`   // TRACE..ERROR, default INFO
	Console bool          `json:"console,omitempty"` // pretty console output
	File    FileLogConfig `json:"file,omitempty"`
}

type FileLogConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"` // default "./mindtrack.log"
}

type StorageConfig struct {
	Path        string `json:"path"`                   // sqlite database file
	BusyTimeout string `json:"busy_timeout,omitempty"` // default "5s"
}

// PollerConfig controls the due-schedule poller.
type PollerConfig struct {
	// Enabled is a pointer so an omitted field defaults to true.
	Enabled     *bool  `json:"enabled,omitempty"`
	Interval    string `json:"interval,omitempty"`     // default "60s"
	HistorySize int    `json:"history_size,omitempty"` // default 200
}

// NotifyConfig selects and tunes the notification sink.
type NotifyConfig struct {
	// Sink is "log" (default) or "telegram".
	Sink       string             `json:"sink,omitempty"`
	RatePerSec int                `json:"rate_per_sec,omitempty"` // default 1
	Telegram   TelegramSinkConfig `json:"telegram,omitempty"`
}

type TelegramSinkConfig struct {
	Token  string `json:"token,omitempty"`
	ChatID int64  `json:"chat_id,omitempty"`
}

// MaintenanceConfig controls background housekeeping (cron specs).
type MaintenanceConfig struct {
	Enabled    bool   `json:"enabled,omitempty"`
	PruneSpec  string `json:"prune_spec,omitempty"`  // default "@daily"
	KeepEvents string `json:"keep_events,omitempty"` // default "2160h" (90 days)
	VacuumSpec string `json:"vacuum_spec,omitempty"` // default "@weekly"
}

// Validate is the default validator installed on the manager: it rejects
// configs that could not possibly run before they are committed/published.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Storage.Path) == "" {
		return fmt.Errorf("storage.path is required")
	}
	if _, err := ParseDurationField("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
		return err
	}
	if _, err := ParseDurationField("poller.interval", c.Poller.Interval); err != nil {
		return err
	}
	if _, err := ParseDurationField("maintenance.keep_events", c.Maintenance.KeepEvents); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(c.Notify.Sink)) {
	case "", "log":
	case "telegram":
		if strings.TrimSpace(c.Notify.Telegram.Token) == "" || c.Notify.Telegram.ChatID == 0 {
			return fmt.Errorf("notify.telegram requires token and chat_id")
		}
	default:
		return fmt.Errorf("notify.sink: unknown sink %q", c.Notify.Sink)
	}
	return nil
}

// PollerEnabled resolves the omitted-means-true default.
func (c *Config) PollerEnabled() bool {
	return c.Poller.Enabled == nil || *c.Poller.Enabled
}
