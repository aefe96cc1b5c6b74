package commands

import (
	"context"
	"errors"
	"strings"
	"time"

	"mindtrack/internal/schedule"
	"mindtrack/internal/storage"
	logx "mindtrack/pkg/logx"
)

// Store is the slice of the storage layer the command surface needs.
type Store interface {
	CreateSchedule(ctx context.Context, sc schedule.Schedule) (schedule.Schedule, error)
	GetSchedule(ctx context.Context, id string) (schedule.Schedule, error)
	ListSchedules(ctx context.Context) ([]schedule.Schedule, error)
	UpdateSchedule(ctx context.Context, sc schedule.Schedule) (schedule.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error

	CreateMoodEntry(ctx context.Context, e storage.MoodEntry) (storage.MoodEntry, error)
	ListMoodEntries(ctx context.Context, from, to time.Time) ([]storage.MoodEntry, error)
	DeleteMoodEntry(ctx context.Context, id string) error
	CreateActivityEntry(ctx context.Context, e storage.ActivityEntry) (storage.ActivityEntry, error)
	ListActivityEntries(ctx context.Context, from, to time.Time) ([]storage.ActivityEntry, error)
	DeleteActivityEntry(ctx context.Context, id string) error
	CreateAssessmentResult(ctx context.Context, r storage.AssessmentResult) (storage.AssessmentResult, error)
	ListAssessmentResults(ctx context.Context, assessmentTypeID string, from, to time.Time) ([]storage.AssessmentResult, error)
	DeleteAssessmentResult(ctx context.Context, id string) error
}

// Handler executes validated commands against the store.
type Handler struct {
	store Store
	log   logx.Logger
}

func New(store Store, log logx.Logger) *Handler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Handler{store: store, log: log}
}

// CreateScheduleRequest carries wire-level values; frequency and time of day
// arrive as strings and are parsed exactly once, here.
type CreateScheduleRequest struct {
	SubjectID  string
	Frequency  string
	TimeOfDay  string
	DayOfWeek  *int
	DayOfMonth *int
	Enabled    *bool // nil means enabled
}

type UpdateScheduleRequest struct {
	ID         string
	Frequency  string
	TimeOfDay  string
	DayOfWeek  *int
	DayOfMonth *int
	Enabled    *bool
}

func (h *Handler) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (schedule.Schedule, error) {
	sc, err := scheduleFromRequest(req.SubjectID, req.Frequency, req.TimeOfDay, req.DayOfWeek, req.DayOfMonth, req.Enabled)
	if err != nil {
		return schedule.Schedule{}, err
	}
	out, err := h.store.CreateSchedule(ctx, sc)
	if err != nil {
		return schedule.Schedule{}, err
	}
	h.log.Info("schedule created",
		logx.String("id", out.ID),
		logx.String("subject", out.SubjectID),
		logx.String("frequency", out.Frequency.String()))
	return out, nil
}

func (h *Handler) GetSchedule(ctx context.Context, id string) (schedule.Schedule, error) {
	if strings.TrimSpace(id) == "" {
		return schedule.Schedule{}, badField("id", "must not be empty")
	}
	return h.store.GetSchedule(ctx, id)
}

func (h *Handler) ListSchedules(ctx context.Context) ([]schedule.Schedule, error) {
	return h.store.ListSchedules(ctx)
}

// UpdateSchedule replaces the schedule's definition. The subject reference
// and trigger state are immutable through this surface; delete and recreate
// to repoint a reminder.
func (h *Handler) UpdateSchedule(ctx context.Context, req UpdateScheduleRequest) (schedule.Schedule, error) {
	if strings.TrimSpace(req.ID) == "" {
		return schedule.Schedule{}, badField("id", "must not be empty")
	}
	cur, err := h.store.GetSchedule(ctx, req.ID)
	if err != nil {
		return schedule.Schedule{}, err
	}
	sc, err := scheduleFromRequest(cur.SubjectID, req.Frequency, req.TimeOfDay, req.DayOfWeek, req.DayOfMonth, req.Enabled)
	if err != nil {
		return schedule.Schedule{}, err
	}
	sc.ID = req.ID
	out, err := h.store.UpdateSchedule(ctx, sc)
	if err != nil {
		return schedule.Schedule{}, err
	}
	h.log.Info("schedule updated", logx.String("id", out.ID))
	return out, nil
}

func (h *Handler) DeleteSchedule(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return badField("id", "must not be empty")
	}
	if err := h.store.DeleteSchedule(ctx, id); err != nil {
		return err
	}
	h.log.Info("schedule deleted", logx.String("id", id))
	return nil
}

func scheduleFromRequest(subjectID, frequency, timeOfDay string, dow, dom *int, enabled *bool) (schedule.Schedule, error) {
	if strings.TrimSpace(subjectID) == "" {
		return schedule.Schedule{}, badField("subject_id", "must not be empty")
	}
	freq, err := schedule.ParseFrequency(frequency)
	if err != nil {
		return schedule.Schedule{}, badFieldErr("frequency", "must be daily, weekly, biweekly or monthly", err)
	}
	tod, err := schedule.ParseTimeOfDay(timeOfDay)
	if err != nil {
		return schedule.Schedule{}, badFieldErr("time_of_day", `must be "HH:MM"`, err)
	}
	sc := schedule.Schedule{
		SubjectID:  subjectID,
		Frequency:  freq,
		TimeOfDay:  tod,
		DayOfWeek:  dow,
		DayOfMonth: dom,
		Enabled:    true,
	}
	if enabled != nil {
		sc.Enabled = *enabled
	}
	if err := sc.Validate(); err != nil {
		return schedule.Schedule{}, validationToFieldError(err)
	}
	return sc, nil
}

func validationToFieldError(err error) error {
	switch {
	case errors.Is(err, schedule.ErrInvalidDayOfWeek):
		return badFieldErr("day_of_week", "weekly and biweekly schedules only, range 0-6", err)
	case errors.Is(err, schedule.ErrInvalidDayOfMonth):
		return badFieldErr("day_of_month", "monthly schedules only, range 1-31", err)
	case errors.Is(err, schedule.ErrInvalidFrequency):
		return badFieldErr("frequency", "unknown frequency", err)
	case errors.Is(err, schedule.ErrInvalidTimeFormat):
		return badFieldErr("time_of_day", `must be "HH:MM"`, err)
	default:
		return err
	}
}
