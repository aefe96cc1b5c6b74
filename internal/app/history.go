package app

import (
	"context"
	"time"

	"mindtrack/internal/services/poller"
	"mindtrack/internal/storage"
	logx "mindtrack/pkg/logx"
)

// historyWriter subscribes to poller events and persists them as reminder
// history rows. It sits on the bus rather than inside the poller so a slow
// disk write can never stall a poll cycle.
func (a *App) historyWriter(ctx context.Context) {
	events, unsub := a.bus.Subscribe(64)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			rev, ok := e.Data.(poller.ReminderEvent)
			if !ok {
				continue
			}
			var outcome string
			switch e.Type {
			case poller.EventFired:
				outcome = "fired"
			case poller.EventNotifyFailed:
				outcome = "notify_failed"
			case poller.EventMarkFailed:
				outcome = "mark_failed"
			default:
				continue
			}

			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err := a.store.AppendReminderEvent(wctx, storage.ReminderEvent{
				At:         rev.At,
				ScheduleID: rev.ScheduleID,
				SubjectID:  rev.SubjectID,
				Outcome:    outcome,
				Error:      rev.Error,
			})
			cancel()
			if err != nil {
				a.log.Warn("reminder history write failed",
					logx.String("schedule_id", rev.ScheduleID),
					logx.Err(err))
			}
		}
	}
}
