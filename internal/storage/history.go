package storage

import (
	"context"
	"database/sql"
	"time"
)

// AppendReminderEvent records one poller outcome. Best-effort: callers log
// and continue on failure, a lost history row never blocks a reminder.
func (s *Store) AppendReminderEvent(ctx context.Context, e ReminderEvent) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reminder_events(at, schedule_id, subject_id, outcome, err) VALUES(?,?,?,?,?)`,
		fmtTime(e.At), e.ScheduleID, nullStr(e.SubjectID), e.Outcome, nullStr(e.Error),
	)
	return err
}

func (s *Store) ListReminderEvents(ctx context.Context, scheduleID string, limit int) ([]ReminderEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, schedule_id, subject_id, outcome, err FROM reminder_events
		  WHERE schedule_id = ? ORDER BY at DESC LIMIT ?`,
		scheduleID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReminderEvent
	for rows.Next() {
		var (
			e            ReminderEvent
			at           string
			subject, msg sql.NullString
		)
		if err := rows.Scan(&at, &e.ScheduleID, &subject, &e.Outcome, &msg); err != nil {
			return nil, err
		}
		e.SubjectID = subject.String
		e.Error = msg.String
		if e.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PruneReminderEvents deletes history older than the cutoff and reports how
// many rows went away.
func (s *Store) PruneReminderEvents(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reminder_events WHERE at < ?`, fmtTime(olderThan))
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return n, nil
}
