// Package maintenance runs background housekeeping on cron schedules:
// pruning old reminder-history rows and compacting the database file.
package maintenance

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "mindtrack/pkg/logx"
)

// Config controls the housekeeping jobs.
type Config struct {
	Enabled    bool
	PruneSpec  string        // cron spec or descriptor, default "@daily"
	KeepEvents time.Duration // reminder-history retention, default 90 days
	VacuumSpec string        // default "@weekly"
}

func (c Config) withDefaults() Config {
	if c.PruneSpec == "" {
		c.PruneSpec = "@daily"
	}
	if c.KeepEvents <= 0 {
		c.KeepEvents = 90 * 24 * time.Hour
	}
	if c.VacuumSpec == "" {
		c.VacuumSpec = "@weekly"
	}
	return c
}

// Store is the slice of the storage layer the jobs need.
type Store interface {
	PruneReminderEvents(ctx context.Context, olderThan time.Time) (int64, error)
	Maintain(ctx context.Context) error
}

type Service struct {
	mu  sync.Mutex
	cfg Config

	log   logx.Logger
	store Store

	parser cron.Parser
	c      *cron.Cron
}

func New(cfg Config, store Store, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:   cfg.withDefaults(),
		log:   log,
		store: store,
		parser: cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		),
	}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Apply swaps the config and, if the service is running, re-registers the
// jobs under the new specs.
func (s *Service) Apply(ctx context.Context, cfg Config) {
	s.mu.Lock()
	s.cfg = cfg.withDefaults()
	running := s.c != nil
	s.mu.Unlock()
	if running {
		s.Stop(ctx)
		s.Start(ctx)
	}
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || !s.cfg.Enabled {
		return
	}

	c := cron.New(cron.WithParser(s.parser))
	if err := s.addJob(c, s.cfg.PruneSpec, "prune", s.prune); err != nil {
		s.log.Error("invalid prune spec", logx.String("spec", s.cfg.PruneSpec), logx.Err(err))
	}
	if err := s.addJob(c, s.cfg.VacuumSpec, "vacuum", s.vacuum); err != nil {
		s.log.Error("invalid vacuum spec", logx.String("spec", s.cfg.VacuumSpec), logx.Err(err))
	}
	c.Start()
	s.c = c
	s.log.Info("maintenance started",
		logx.String("prune", s.cfg.PruneSpec),
		logx.String("vacuum", s.cfg.VacuumSpec),
		logx.Duration("keep_events", s.cfg.KeepEvents))
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Service) addJob(c *cron.Cron, spec, name string, job func(ctx context.Context)) error {
	_, err := c.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic in maintenance job",
					logx.String("job", name),
					logx.Any("panic", r),
					logx.String("stack", string(debug.Stack())))
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		job(ctx)
	})
	return err
}

func (s *Service) prune(ctx context.Context) {
	s.mu.Lock()
	keep := s.cfg.KeepEvents
	s.mu.Unlock()

	cutoff := time.Now().Add(-keep)
	n, err := s.store.PruneReminderEvents(ctx, cutoff)
	if err != nil {
		s.log.Warn("reminder-history prune failed", logx.Err(err))
		return
	}
	if n > 0 {
		s.log.Info("reminder history pruned", logx.Int64("rows", n), logx.Time("cutoff", cutoff))
	}
}

func (s *Service) vacuum(ctx context.Context) {
	if err := s.store.Maintain(ctx); err != nil {
		s.log.Warn("database maintenance failed", logx.Err(err))
		return
	}
	s.log.Debug("database checkpointed and vacuumed")
}
