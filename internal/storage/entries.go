package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"mindtrack/internal/schedule"
)

// Tracker tables: mood check-ins, activity logs, assessment results.
// These are soft-deleted so history charts can be rebuilt after mistakes.

func (s *Store) CreateMoodEntry(ctx context.Context, e MoodEntry) (MoodEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	e.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO mood_entries(id, score, note, at, created_at) VALUES(?,?,?,?,?)`,
		e.ID, e.Score, nullStr(e.Note), fmtTime(e.At), fmtTime(e.CreatedAt),
	)
	return e, err
}

func (s *Store) ListMoodEntries(ctx context.Context, from, to time.Time) ([]MoodEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, score, note, at, created_at FROM mood_entries
		  WHERE deleted_at IS NULL AND at >= ? AND at < ?
		  ORDER BY at`,
		fmtTime(from), fmtTime(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MoodEntry
	for rows.Next() {
		var (
			e       MoodEntry
			note    sql.NullString
			at, cre string
		)
		if err := rows.Scan(&e.ID, &e.Score, &note, &at, &cre); err != nil {
			return nil, err
		}
		e.Note = note.String
		if e.At, err = parseTime(at); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(cre); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteMoodEntry(ctx context.Context, id string) error {
	return s.softDelete(ctx, "mood_entries", id)
}

func (s *Store) CreateActivityEntry(ctx context.Context, e ActivityEntry) (ActivityEntry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	e.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO activity_entries(id, name, minutes, note, at, created_at) VALUES(?,?,?,?,?,?)`,
		e.ID, e.Name, e.Minutes, nullStr(e.Note), fmtTime(e.At), fmtTime(e.CreatedAt),
	)
	return e, err
}

func (s *Store) ListActivityEntries(ctx context.Context, from, to time.Time) ([]ActivityEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, minutes, note, at, created_at FROM activity_entries
		  WHERE deleted_at IS NULL AND at >= ? AND at < ?
		  ORDER BY at`,
		fmtTime(from), fmtTime(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ActivityEntry
	for rows.Next() {
		var (
			e       ActivityEntry
			note    sql.NullString
			at, cre string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Minutes, &note, &at, &cre); err != nil {
			return nil, err
		}
		e.Note = note.String
		if e.At, err = parseTime(at); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = parseTime(cre); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) DeleteActivityEntry(ctx context.Context, id string) error {
	return s.softDelete(ctx, "activity_entries", id)
}

func (s *Store) CreateAssessmentResult(ctx context.Context, r AssessmentResult) (AssessmentResult, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}
	r.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessment_results(id, assessment_type_id, score, at, created_at) VALUES(?,?,?,?,?)`,
		r.ID, r.AssessmentTypeID, r.Score, fmtTime(r.At), fmtTime(r.CreatedAt),
	)
	return r, err
}

func (s *Store) ListAssessmentResults(ctx context.Context, assessmentTypeID string, from, to time.Time) ([]AssessmentResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, assessment_type_id, score, at, created_at FROM assessment_results
		  WHERE deleted_at IS NULL AND assessment_type_id = ? AND at >= ? AND at < ?
		  ORDER BY at`,
		assessmentTypeID, fmtTime(from), fmtTime(to),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AssessmentResult
	for rows.Next() {
		var (
			r       AssessmentResult
			at, cre string
		)
		if err := rows.Scan(&r.ID, &r.AssessmentTypeID, &r.Score, &at, &cre); err != nil {
			return nil, err
		}
		if r.At, err = parseTime(at); err != nil {
			return nil, err
		}
		if r.CreatedAt, err = parseTime(cre); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) DeleteAssessmentResult(ctx context.Context, id string) error {
	return s.softDelete(ctx, "assessment_results", id)
}

func (s *Store) softDelete(ctx context.Context, table, id string) error {
	// table is always one of our own constants, never user input.
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		fmtTime(time.Now()), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return schedule.ErrNotFound
	}
	return nil
}
