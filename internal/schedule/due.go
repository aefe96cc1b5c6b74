package schedule

import "time"

// DueAt reports whether the schedule has an occurrence at or before now
// that has not been marked yet. The storage layer's day-granularity filter
// may let false positives through (a biweekly mid-cycle, a weekly on the
// wrong weekday); this is the precise check the poller applies before
// firing.
func DueAt(s Schedule, now time.Time) (bool, error) {
	if err := s.Validate(); err != nil {
		return false, err
	}
	switch s.Frequency {
	case Daily:
		return dueToday(s, now), nil
	case Weekly:
		if int(now.Weekday()) != *s.DayOfWeek {
			return false, nil
		}
		return dueToday(s, now), nil
	case Biweekly:
		if s.LastTriggeredAt == nil {
			if int(now.Weekday()) != *s.DayOfWeek {
				return false, nil
			}
			return dueToday(s, now), nil
		}
		// One full interval elapsed since the anchor.
		return !now.Before(s.LastTriggeredAt.AddDate(0, 0, biweeklyInterval)), nil
	case Monthly:
		if now.Day() != clampDay(*s.DayOfMonth, now.Year(), now.Month()) {
			return false, nil
		}
		return dueToday(s, now), nil
	default:
		return false, nil
	}
}

// dueToday: today's slot has arrived and nothing marked it yet.
func dueToday(s Schedule, now time.Time) bool {
	slot := at(now, s.TimeOfDay)
	if slot.After(now) {
		return false
	}
	return s.LastTriggeredAt == nil || s.LastTriggeredAt.Before(slot)
}
