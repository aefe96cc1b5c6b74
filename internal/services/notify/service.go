package notify

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	logx "mindtrack/pkg/logx"
)

// Service wraps a Sink with rate limiting and a bounded delivery history.
// It is safe for concurrent use, though the poller drives it sequentially.
type Service struct {
	mu      sync.Mutex
	cfg     Config
	sink    Sink
	log     logx.Logger
	limiter *rate.Limiter

	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sink Sink, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Service{sink: sink, log: log}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

// SetSink swaps the delivery sink, e.g. when a config reload switches
// between log and telegram. In-flight sends finish on the old sink.
func (s *Service) SetSink(sink Sink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// SinkName reports the active sink for status output.
func (s *Service) SinkName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink.Name()
}

func (s *Service) applyLocked(cfg Config) {
	cfg = cfg.withDefaults()
	s.cfg = cfg
	// Burst = rate per sec, so a batch of due schedules drains quickly
	// without hammering the sink.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Notify delivers n through the configured sink, pacing via the limiter.
// The error is returned for the caller's bookkeeping; callers treat it as
// non-fatal.
func (s *Service) Notify(ctx context.Context, n Notification) error {
	s.mu.Lock()
	lim := s.limiter
	sink := s.sink
	s.mu.Unlock()

	if err := lim.Wait(ctx); err != nil {
		return err
	}

	err := sink.Send(ctx, n)
	item := HistoryItem{At: time.Now(), ScheduleID: n.ScheduleID, Title: n.Title, Sink: sink.Name()}
	if err != nil {
		item.Error = err.Error()
		s.log.Warn("notification send failed",
			logx.String("sink", sink.Name()),
			logx.String("schedule_id", n.ScheduleID),
			logx.Err(err))
	} else {
		s.log.Debug("notification sent",
			logx.String("sink", sink.Name()),
			logx.String("schedule_id", n.ScheduleID))
	}
	s.appendHistory(item)
	return err
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

// History returns a copy of recent delivery attempts, newest last.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	defer s.hmu.Unlock()
	out := make([]HistoryItem, len(s.history))
	copy(out, s.history)
	return out
}
