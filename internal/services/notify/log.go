package notify

import (
	"context"

	logx "mindtrack/pkg/logx"
)

// LogSink writes reminders to the application log. It is the default sink
// and the fallback when no external channel is configured.
type LogSink struct {
	log logx.Logger
}

func NewLogSink(log logx.Logger) *LogSink {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(_ context.Context, n Notification) error {
	s.log.Info("reminder",
		logx.String("title", n.Title),
		logx.String("body", n.Body),
		logx.String("schedule_id", n.ScheduleID),
		logx.String("subject_id", n.SubjectID),
	)
	return nil
}
