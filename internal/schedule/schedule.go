package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the closed set of supported cadences.
//
// The wire format (config, database, command requests) is the lowercase
// string; parse it once at the boundary and keep the tagged value inside.
type Frequency int

const (
	Daily Frequency = iota
	Weekly
	Biweekly
	Monthly
)

// ParseFrequency maps a wire string to a Frequency.
// Unknown strings are rejected; raw strings never reach the calculator.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, nil
	case "weekly":
		return Weekly, nil
	case "biweekly":
		return Biweekly, nil
	case "monthly":
		return Monthly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
}

func (f Frequency) String() string {
	switch f {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Biweekly:
		return "biweekly"
	case Monthly:
		return "monthly"
	default:
		return fmt.Sprintf("frequency(%d)", int(f))
	}
}

// Schedule is a recurring reminder definition plus its single piece of
// mutable state (LastTriggeredAt).
type Schedule struct {
	ID        string
	SubjectID string // opaque reference to the assessment being reminded about

	Frequency Frequency
	TimeOfDay TimeOfDay

	// Exactly one anchor is set, determined by Frequency:
	// Weekly/Biweekly need DayOfWeek, Monthly needs DayOfMonth, Daily neither.
	DayOfWeek  *int // 0 = Sunday .. 6 = Saturday
	DayOfMonth *int // 1-31; clamped to the resolved month's length

	Enabled bool

	// LastTriggeredAt is nil until the first firing. It is mutated only by
	// the store's MarkTriggered and is monotonically non-decreasing.
	LastTriggeredAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the anchor-field invariants for the schedule's frequency.
// Storage and command layers call this before any write; NextTrigger relies
// on it having passed.
func (s Schedule) Validate() error {
	switch s.Frequency {
	case Daily:
		if s.DayOfWeek != nil {
			return fmt.Errorf("%w: daily schedules take no day_of_week", ErrInvalidDayOfWeek)
		}
		if s.DayOfMonth != nil {
			return fmt.Errorf("%w: daily schedules take no day_of_month", ErrInvalidDayOfMonth)
		}
	case Weekly, Biweekly:
		if s.DayOfWeek == nil {
			return fmt.Errorf("%w: %s schedules require day_of_week", ErrInvalidDayOfWeek, s.Frequency)
		}
		if s.DayOfMonth != nil {
			return fmt.Errorf("%w: %s schedules take no day_of_month", ErrInvalidDayOfMonth, s.Frequency)
		}
		if d := *s.DayOfWeek; d < 0 || d > 6 {
			return fmt.Errorf("%w: %d", ErrInvalidDayOfWeek, d)
		}
	case Monthly:
		if s.DayOfMonth == nil {
			return fmt.Errorf("%w: monthly schedules require day_of_month", ErrInvalidDayOfMonth)
		}
		if s.DayOfWeek != nil {
			return fmt.Errorf("%w: monthly schedules take no day_of_week", ErrInvalidDayOfWeek)
		}
		if d := *s.DayOfMonth; d < 1 || d > 31 {
			return fmt.Errorf("%w: %d", ErrInvalidDayOfMonth, d)
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidFrequency, int(s.Frequency))
	}
	return nil
}
