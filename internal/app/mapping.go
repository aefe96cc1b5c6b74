package app

import (
	"strings"
	"time"

	"mindtrack/internal/config"
	"mindtrack/internal/services/maintenance"
	"mindtrack/internal/services/notify"
	"mindtrack/internal/services/poller"
	"mindtrack/internal/storage"
	logx "mindtrack/pkg/logx"
)

// Mapping helpers translate the on-disk config (string durations, omitted
// fields) into the typed configs each service takes. Each mapper validates
// its own section so hot reloads can reject bad values before applying.

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapStorageConfig(cfg *config.Config) (storage.Config, error) {
	bt, err := config.ParseDurationOrDefault("storage.busy_timeout", cfg.Storage.BusyTimeout, 5*time.Second)
	if err != nil {
		return storage.Config{}, err
	}
	return storage.Config{Path: cfg.Storage.Path, BusyTimeout: bt}, nil
}

func mapPollerConfig(cfg *config.Config) (poller.Config, error) {
	interval, err := config.ParseDurationOrDefault("poller.interval", cfg.Poller.Interval, 60*time.Second)
	if err != nil {
		return poller.Config{}, err
	}
	return poller.Config{
		Enabled:     cfg.PollerEnabled(),
		Interval:    interval,
		HistorySize: cfg.Poller.HistorySize,
	}, nil
}

func mapNotifyConfig(cfg *config.Config) notify.Config {
	return notify.Config{RatePerSec: cfg.Notify.RatePerSec}
}

func mapMaintenanceConfig(cfg *config.Config) (maintenance.Config, error) {
	keep, err := config.ParseDurationField("maintenance.keep_events", cfg.Maintenance.KeepEvents)
	if err != nil {
		return maintenance.Config{}, err
	}
	return maintenance.Config{
		Enabled:    cfg.Maintenance.Enabled,
		PruneSpec:  cfg.Maintenance.PruneSpec,
		KeepEvents: keep,
		VacuumSpec: cfg.Maintenance.VacuumSpec,
	}, nil
}

// buildSink resolves the configured notification sink. The log sink needs
// no external state and is the fallback.
func buildSink(cfg *config.Config, log logx.Logger) (notify.Sink, error) {
	if strings.ToLower(strings.TrimSpace(cfg.Notify.Sink)) == "telegram" {
		return notify.NewTelegramSink(notify.TelegramConfig{
			Token:  cfg.Notify.Telegram.Token,
			ChatID: cfg.Notify.Telegram.ChatID,
		})
	}
	return notify.NewLogSink(log.With(logx.String("comp", "notify"))), nil
}
