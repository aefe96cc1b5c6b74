package schedule

import (
	"fmt"
	"time"
)

// maxCatchUpSteps bounds the biweekly catch-up loop. 1024 steps cover ~39
// years of downtime; anything beyond that means LastTriggeredAt is corrupt
// (e.g. written under a broken system clock) and we refuse to spin.
const maxCatchUpSteps = 1024

const biweeklyInterval = 14 // days

// NextTrigger computes the next instant the schedule should fire, strictly
// after now. All times are local wall clock; now and LastTriggeredAt must be
// in the same reference frame.
//
// Daily, Weekly and Monthly anchor to now and ignore LastTriggeredAt.
// Biweekly anchors to LastTriggeredAt: re-deriving it from the nearest
// matching weekday would silently collapse the cadence to weekly.
func NextTrigger(s Schedule, now time.Time) (time.Time, error) {
	if err := s.Validate(); err != nil {
		return time.Time{}, err
	}
	switch s.Frequency {
	case Daily:
		return nextDaily(s.TimeOfDay, now), nil
	case Weekly:
		return nextWeekly(*s.DayOfWeek, s.TimeOfDay, now), nil
	case Biweekly:
		return nextBiweekly(s, now)
	case Monthly:
		return nextMonthly(*s.DayOfMonth, s.TimeOfDay, now), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %d", ErrInvalidFrequency, int(s.Frequency))
	}
}

func nextDaily(tod TimeOfDay, now time.Time) time.Time {
	candidate := at(now, tod)
	if !candidate.After(now) {
		candidate = at(now.AddDate(0, 0, 1), tod)
	}
	return candidate
}

func nextWeekly(dow int, tod TimeOfDay, now time.Time) time.Time {
	daysUntil := (dow - int(now.Weekday()) + 7) % 7
	candidate := at(now.AddDate(0, 0, daysUntil), tod)
	if daysUntil == 0 && !candidate.After(now) {
		candidate = at(now.AddDate(0, 0, 7), tod)
	}
	return candidate
}

func nextBiweekly(s Schedule, now time.Time) (time.Time, error) {
	// First-ever trigger: no anchor yet, behave like weekly.
	if s.LastTriggeredAt == nil {
		return nextWeekly(*s.DayOfWeek, s.TimeOfDay, now), nil
	}
	// Catch-up: step forward in whole 14-day intervals from the last firing
	// until strictly past now. Stepping from LastTriggeredAt (not from the
	// nearest weekday match) is what keeps the cadence at 14 days across
	// downtime.
	candidate := s.LastTriggeredAt.AddDate(0, 0, biweeklyInterval)
	for steps := 1; !candidate.After(now); steps++ {
		if steps >= maxCatchUpSteps {
			return time.Time{}, fmt.Errorf("%w: biweekly catch-up from %s did not pass %s after %d steps",
				ErrDateArithmetic, s.LastTriggeredAt.Format(time.RFC3339), now.Format(time.RFC3339), steps)
		}
		candidate = candidate.AddDate(0, 0, biweeklyInterval)
	}
	return candidate, nil
}

func nextMonthly(dom int, tod TimeOfDay, now time.Time) time.Time {
	year, month := now.Year(), now.Month()

	// Clamp the requested day to this month before deciding whether it has
	// passed: asking for day 31 on Feb 28 afternoon must roll to March, not
	// return a Feb instant already behind now.
	day := clampDay(dom, year, month)
	passed := day < now.Day() || (day == now.Day() && tod.Minutes() <= now.Hour()*60+now.Minute())
	if passed {
		month++
		if month > time.December {
			month = time.January
			year++
		}
		day = clampDay(dom, year, month)
	}
	return time.Date(year, month, day, tod.Hour, tod.Minute, 0, 0, now.Location())
}

// at returns the given day at tod, preserving the location.
func at(day time.Time, tod TimeOfDay) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), tod.Hour, tod.Minute, 0, 0, day.Location())
}

func clampDay(day, year int, month time.Month) int {
	if last := daysIn(year, month); day > last {
		return last
	}
	return day
}

// daysIn returns the number of days in the month.
// Day 0 of the next month normalizes to the last day of this one.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
