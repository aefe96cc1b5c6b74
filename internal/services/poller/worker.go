package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mindtrack/internal/eventbus"
	"mindtrack/internal/schedule"
	"mindtrack/internal/services/notify"
	"mindtrack/internal/storage"
	logx "mindtrack/pkg/logx"
)

func (s *Service) loop(ctx context.Context, stopCh <-chan struct{}) {
	s.mu.Lock()
	interval := s.cfg.Interval
	now := s.now
	s.mu.Unlock()

	// First check right away so reminders missed during downtime fire on
	// startup, not a full interval later.
	s.RunOnce(ctx, now())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.RunOnce(ctx, now())
			// Pick up interval changes from a config reload.
			s.mu.Lock()
			if cur := s.cfg.Interval; cur != interval {
				interval = cur
				ticker.Reset(interval)
			}
			s.mu.Unlock()
		}
	}
}

// RunOnce executes one poll cycle against the given now. Exported so tests
// can drive consecutive wakes with a synthetic clock and a fake store.
func (s *Service) RunOnce(ctx context.Context, now time.Time) {
	candidates, err := s.store.DueSchedules(ctx, now)
	if err != nil {
		s.log.Warn("due-schedule query failed", logx.Err(err))
		return
	}
	if len(candidates) == 0 {
		return
	}
	s.log.Debug("poll cycle", logx.Int("candidates", len(candidates)), logx.Time("now", now))

	for _, sc := range candidates {
		// One schedule's failure never blocks the rest of the cycle.
		s.fireOne(ctx, sc, now)
	}
}

func (s *Service) fireOne(ctx context.Context, sc schedule.Schedule, now time.Time) {
	due, err := schedule.DueAt(sc, now)
	if err != nil {
		// Validation failed on a stored row: a bug or hand-edited database,
		// not a user error. Flag it clearly and skip.
		s.log.Error("stored schedule failed validation", logx.String("id", sc.ID), logx.Err(err))
		return
	}
	if !due {
		// Coarse-filter false positive (e.g. biweekly mid-cycle).
		s.log.Trace("coarse candidate not due", logx.String("id", sc.ID))
		return
	}

	item := HistoryItem{At: now, ScheduleID: sc.ID, SubjectID: sc.SubjectID}

	nerr := s.notif.Notify(ctx, notify.Notification{
		Title:      "Check-in reminder",
		Body:       fmt.Sprintf("Time for your %s %s check-in.", sc.Frequency, sc.SubjectID),
		ScheduleID: sc.ID,
		SubjectID:  sc.SubjectID,
	})
	if nerr != nil {
		// Non-fatal: mark anyway so a broken sink doesn't cause indefinite
		// re-delivery every cycle.
		item.NotifyErr = nerr.Error()
		s.publish(EventNotifyFailed, ReminderEvent{ScheduleID: sc.ID, SubjectID: sc.SubjectID, At: now, Error: nerr.Error()})
	}

	if merr := s.store.MarkTriggered(ctx, sc.ID, now); merr != nil {
		switch {
		case errors.Is(merr, storage.ErrConflict):
			// A newer mark is already in place; nothing to repair.
			s.log.Debug("mark superseded", logx.String("id", sc.ID))
		case errors.Is(merr, schedule.ErrNotFound):
			// Deleted between read and mark; fine.
			s.log.Debug("schedule gone before mark", logx.String("id", sc.ID))
		default:
			// Notified but not marked: the next cycle will re-detect it.
			// Log the inconsistency and keep going.
			item.MarkErr = merr.Error()
			s.log.Error("mark-triggered failed after notify", logx.String("id", sc.ID), logx.Err(merr))
			s.publish(EventMarkFailed, ReminderEvent{ScheduleID: sc.ID, SubjectID: sc.SubjectID, At: now, Error: merr.Error()})
		}
		s.appendHistory(item)
		return
	}

	if nerr == nil {
		s.publish(EventFired, ReminderEvent{ScheduleID: sc.ID, SubjectID: sc.SubjectID, At: now})
		s.log.Info("reminder fired", logx.String("id", sc.ID), logx.String("subject", sc.SubjectID))
	}
	s.appendHistory(item)
}

func (s *Service) publish(typ string, ev ReminderEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventbus.Event{Type: typ, Time: ev.At, Data: ev})
}
