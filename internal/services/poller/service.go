package poller

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"mindtrack/internal/eventbus"
	logx "mindtrack/pkg/logx"
)

// Service owns the background poll loop. It runs for the life of the
// process; Stop exists for tests and orderly shutdown.
type Service struct {
	mu  sync.Mutex
	cfg Config

	log   logx.Logger
	store Store
	notif Notifier
	bus   eventbus.Bus

	// now is the injectable clock; production uses time.Now.
	now func() time.Time

	stopCh   chan struct{}
	stopDone chan struct{}

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, store Store, notif Notifier, bus eventbus.Bus, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:   cfg.withDefaults(),
		log:   log,
		store: store,
		notif: notif,
		bus:   bus,
		now:   time.Now,
	}
}

// SetClock replaces the time source. Call before Start; tests only.
func (s *Service) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	en := s.cfg.Enabled
	s.mu.Unlock()
	return en
}

// Apply updates the config. A changed interval takes effect on the next
// cycle; enable/disable is handled by the app restarting the service.
func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg.withDefaults()
	s.mu.Unlock()
}

func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stopCh != nil || !s.cfg.Enabled {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.stopDone = make(chan struct{})
	stopCh, stopDone := s.stopCh, s.stopDone
	interval := s.cfg.Interval
	s.mu.Unlock()

	go func() {
		defer close(stopDone)
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("panic in poller loop", logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
			}
		}()
		s.log.Info("poller started", logx.Duration("interval", interval))
		s.loop(ctx, stopCh)
		s.log.Info("poller stopped")
	}()
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	stopCh, stopDone := s.stopCh, s.stopDone
	s.stopCh = nil
	s.stopDone = nil
	s.mu.Unlock()
	if stopCh == nil {
		return
	}

	close(stopCh)
	select {
	case <-stopDone:
	case <-ctx.Done():
	}
}

func (s *Service) appendHistory(item HistoryItem) {
	s.mu.Lock()
	size := s.cfg.HistorySize
	s.mu.Unlock()

	s.hmu.Lock()
	defer s.hmu.Unlock()
	s.history = append(s.history, item)
	if len(s.history) > size {
		s.history = s.history[len(s.history)-size:]
	}
}

// History returns a copy of recent poller outcomes, newest last.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	out := make([]HistoryItem, len(s.history))
	copy(out, s.history)
	return out
}
