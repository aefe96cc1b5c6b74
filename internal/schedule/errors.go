package schedule

import "errors"

var (
	// ErrInvalidTimeFormat rejects anything that is not a strict "HH:MM".
	ErrInvalidTimeFormat = errors.New("invalid time format, expected HH:MM")

	// ErrInvalidFrequency rejects unknown frequency strings.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// The day errors cover range violations and anchors that are missing or
	// not allowed for the schedule's frequency, so callers can attribute the
	// failure to the right field.
	ErrInvalidDayOfWeek  = errors.New("day_of_week must be 0 (Sunday) to 6 (Saturday)")
	ErrInvalidDayOfMonth = errors.New("day_of_month must be 1 to 31")

	// ErrNotFound is returned by stores for unknown schedule ids.
	ErrNotFound = errors.New("schedule not found")

	// ErrDateArithmetic signals an internal invariant violation in trigger
	// computation (e.g. a runaway catch-up loop caused by corrupt state).
	// It should be unreachable with validated inputs; surface it as a bug,
	// not as user input feedback.
	ErrDateArithmetic = errors.New("internal date arithmetic error")
)
