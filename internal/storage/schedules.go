package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mindtrack/internal/schedule"
	logx "mindtrack/pkg/logx"
)

const scheduleCols = `id, assessment_type_id, frequency, time_of_day, day_of_week, day_of_month, enabled, last_triggered_at, created_at, updated_at`

// CreateSchedule validates and inserts a new schedule. A missing ID is
// assigned here; audit timestamps are owned by this layer.
func (s *Store) CreateSchedule(ctx context.Context, sc schedule.Schedule) (schedule.Schedule, error) {
	if err := sc.Validate(); err != nil {
		return schedule.Schedule{}, err
	}
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	now := time.Now()
	sc.CreatedAt = now
	sc.UpdatedAt = now
	sc.LastTriggeredAt = nil

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO schedules(`+scheduleCols+`) VALUES(?,?,?,?,?,?,?,?,?,?)`,
		sc.ID, sc.SubjectID, sc.Frequency.String(), sc.TimeOfDay.String(),
		nullInt(sc.DayOfWeek), nullInt(sc.DayOfMonth), sc.Enabled,
		nil, fmtTime(sc.CreatedAt), fmtTime(sc.UpdatedAt),
	)
	if err != nil {
		return schedule.Schedule{}, err
	}
	s.log.Debug("schedule created", logx.String("id", sc.ID), logx.String("frequency", sc.Frequency.String()))
	return sc, nil
}

func (s *Store) GetSchedule(ctx context.Context, id string) (schedule.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+scheduleCols+` FROM schedules WHERE id = ?`, id)
	sc, err := scanSchedule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	return sc, err
}

func (s *Store) ListSchedules(ctx context.Context) ([]schedule.Schedule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+scheduleCols+` FROM schedules ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// UpdateSchedule rewrites the definition fields of an existing schedule.
// LastTriggeredAt and CreatedAt are not touched; only MarkTriggered moves
// the trigger state.
func (s *Store) UpdateSchedule(ctx context.Context, sc schedule.Schedule) (schedule.Schedule, error) {
	if err := sc.Validate(); err != nil {
		return schedule.Schedule{}, err
	}
	sc.UpdatedAt = time.Now()

	res, err := s.db.ExecContext(ctx,
		`UPDATE schedules
		    SET assessment_type_id=?, frequency=?, time_of_day=?, day_of_week=?, day_of_month=?, enabled=?, updated_at=?
		  WHERE id=?`,
		sc.SubjectID, sc.Frequency.String(), sc.TimeOfDay.String(),
		nullInt(sc.DayOfWeek), nullInt(sc.DayOfMonth), sc.Enabled,
		fmtTime(sc.UpdatedAt), sc.ID,
	)
	if err != nil {
		return schedule.Schedule{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.Schedule{}, schedule.ErrNotFound
	}
	return s.GetSchedule(ctx, sc.ID)
}

// DeleteSchedule removes the schedule. Schedules are hard-deleted; the
// tracker tables keep their own soft-delete semantics.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM schedules WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

// DueSchedules returns enabled schedules that pass the cheap day-granularity
// pre-filter: never triggered today (or at all) and whose time-of-day is at
// or before now's. It can return false positives (e.g. a biweekly mid-cycle);
// the poller confirms each hit against schedule.DueAt before firing.
func (s *Store) DueSchedules(ctx context.Context, now time.Time) ([]schedule.Schedule, error) {
	hhmm := fmt.Sprintf("%02d:%02d", now.Hour(), now.Minute())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scheduleCols+` FROM schedules
		  WHERE enabled = 1
		    AND (last_triggered_at IS NULL OR date(last_triggered_at) != date(?))
		    AND time_of_day <= ?
		  ORDER BY time_of_day`,
		fmtTime(now), hhmm,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []schedule.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

// MarkTriggered atomically records that the schedule fired at now.
// The guard keeps last_triggered_at monotonically non-decreasing; a mark
// that would move it backwards returns ErrConflict instead of writing.
func (s *Store) MarkTriggered(ctx context.Context, id string, now time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE schedules
		    SET last_triggered_at=?, updated_at=?
		  WHERE id=?
		    AND (last_triggered_at IS NULL OR julianday(last_triggered_at) <= julianday(?))`,
		fmtTime(now), fmtTime(now), id, fmtTime(now),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	// No row moved: unknown id or a newer mark already in place.
	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM schedules WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.ErrNotFound
	}
	if err != nil {
		return err
	}
	return ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSchedule(row rowScanner) (schedule.Schedule, error) {
	var (
		sc        schedule.Schedule
		freq, tod string
		dow, dom  sql.NullInt64
		last      sql.NullString
		created   string
		updated   string
	)
	if err := row.Scan(&sc.ID, &sc.SubjectID, &freq, &tod, &dow, &dom, &sc.Enabled, &last, &created, &updated); err != nil {
		return schedule.Schedule{}, err
	}

	f, err := schedule.ParseFrequency(freq)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("schedule %s: %w", sc.ID, err)
	}
	sc.Frequency = f

	t, err := schedule.ParseTimeOfDay(tod)
	if err != nil {
		return schedule.Schedule{}, fmt.Errorf("schedule %s: %w", sc.ID, err)
	}
	sc.TimeOfDay = t

	if dow.Valid {
		v := int(dow.Int64)
		sc.DayOfWeek = &v
	}
	if dom.Valid {
		v := int(dom.Int64)
		sc.DayOfMonth = &v
	}
	if last.Valid {
		lt, err := parseTime(last.String)
		if err != nil {
			return schedule.Schedule{}, fmt.Errorf("schedule %s: bad last_triggered_at: %w", sc.ID, err)
		}
		sc.LastTriggeredAt = &lt
	}
	if sc.CreatedAt, err = parseTime(created); err != nil {
		return schedule.Schedule{}, fmt.Errorf("schedule %s: bad created_at: %w", sc.ID, err)
	}
	if sc.UpdatedAt, err = parseTime(updated); err != nil {
		return schedule.Schedule{}, fmt.Errorf("schedule %s: bad updated_at: %w", sc.ID, err)
	}
	return sc, nil
}
