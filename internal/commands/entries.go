package commands

import (
	"context"
	"strings"
	"time"

	"mindtrack/internal/storage"
	logx "mindtrack/pkg/logx"
)

const maxNoteLen = 2000

type CreateMoodEntryRequest struct {
	Score int // 1-10
	Note  string
	At    time.Time // zero means now
}

func (h *Handler) CreateMoodEntry(ctx context.Context, req CreateMoodEntryRequest) (storage.MoodEntry, error) {
	if req.Score < 1 || req.Score > 10 {
		return storage.MoodEntry{}, badField("score", "must be between 1 and 10")
	}
	if len(req.Note) > maxNoteLen {
		return storage.MoodEntry{}, badField("note", "too long")
	}
	e, err := h.store.CreateMoodEntry(ctx, storage.MoodEntry{
		Score: req.Score,
		Note:  strings.TrimSpace(req.Note),
		At:    req.At,
	})
	if err != nil {
		return storage.MoodEntry{}, err
	}
	h.log.Debug("mood entry created", logx.String("id", e.ID), logx.Int("score", e.Score))
	return e, nil
}

func (h *Handler) ListMoodEntries(ctx context.Context, from, to time.Time) ([]storage.MoodEntry, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return h.store.ListMoodEntries(ctx, from, to)
}

func (h *Handler) DeleteMoodEntry(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return badField("id", "must not be empty")
	}
	return h.store.DeleteMoodEntry(ctx, id)
}

type CreateActivityEntryRequest struct {
	Name    string
	Minutes int
	Note    string
	At      time.Time
}

func (h *Handler) CreateActivityEntry(ctx context.Context, req CreateActivityEntryRequest) (storage.ActivityEntry, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return storage.ActivityEntry{}, badField("name", "must not be empty")
	}
	if req.Minutes <= 0 || req.Minutes > 24*60 {
		return storage.ActivityEntry{}, badField("minutes", "must be between 1 and 1440")
	}
	if len(req.Note) > maxNoteLen {
		return storage.ActivityEntry{}, badField("note", "too long")
	}
	e, err := h.store.CreateActivityEntry(ctx, storage.ActivityEntry{
		Name:    name,
		Minutes: req.Minutes,
		Note:    strings.TrimSpace(req.Note),
		At:      req.At,
	})
	if err != nil {
		return storage.ActivityEntry{}, err
	}
	h.log.Debug("activity entry created", logx.String("id", e.ID), logx.String("name", e.Name))
	return e, nil
}

func (h *Handler) ListActivityEntries(ctx context.Context, from, to time.Time) ([]storage.ActivityEntry, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return h.store.ListActivityEntries(ctx, from, to)
}

func (h *Handler) DeleteActivityEntry(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return badField("id", "must not be empty")
	}
	return h.store.DeleteActivityEntry(ctx, id)
}

type CreateAssessmentResultRequest struct {
	AssessmentTypeID string
	Score            int
	At               time.Time
}

func (h *Handler) CreateAssessmentResult(ctx context.Context, req CreateAssessmentResultRequest) (storage.AssessmentResult, error) {
	if strings.TrimSpace(req.AssessmentTypeID) == "" {
		return storage.AssessmentResult{}, badField("assessment_type_id", "must not be empty")
	}
	if req.Score < 0 {
		return storage.AssessmentResult{}, badField("score", "must not be negative")
	}
	r, err := h.store.CreateAssessmentResult(ctx, storage.AssessmentResult{
		AssessmentTypeID: req.AssessmentTypeID,
		Score:            req.Score,
		At:               req.At,
	})
	if err != nil {
		return storage.AssessmentResult{}, err
	}
	h.log.Debug("assessment result created",
		logx.String("id", r.ID),
		logx.String("type", r.AssessmentTypeID),
		logx.Int("score", r.Score))
	return r, nil
}

func (h *Handler) ListAssessmentResults(ctx context.Context, assessmentTypeID string, from, to time.Time) ([]storage.AssessmentResult, error) {
	if strings.TrimSpace(assessmentTypeID) == "" {
		return nil, badField("assessment_type_id", "must not be empty")
	}
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	return h.store.ListAssessmentResults(ctx, assessmentTypeID, from, to)
}

func (h *Handler) DeleteAssessmentResult(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return badField("id", "must not be empty")
	}
	return h.store.DeleteAssessmentResult(ctx, id)
}

func checkRange(from, to time.Time) error {
	if !to.After(from) {
		return badField("to", "must be after from")
	}
	return nil
}
