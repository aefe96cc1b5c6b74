package schedule

import (
	"testing"
	"time"
)

func TestDueAtDaily(t *testing.T) {
	t.Parallel()
	s := Schedule{Frequency: Daily, TimeOfDay: mustTOD(t, "09:00")}

	tests := []struct {
		name string
		last *time.Time
		now  time.Time
		want bool
	}{
		{
			name: "before the slot",
			now:  time.Date(2025, 3, 10, 8, 59, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "at the slot, never triggered",
			now:  time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			want: true,
		},
		{
			name: "after the slot, marked earlier today",
			last: timep(time.Date(2025, 3, 10, 9, 0, 30, 0, time.UTC)),
			now:  time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC),
			want: false,
		},
		{
			name: "after the slot, marked yesterday",
			last: timep(time.Date(2025, 3, 9, 9, 0, 30, 0, time.UTC)),
			now:  time.Date(2025, 3, 10, 9, 5, 0, 0, time.UTC),
			want: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := s
			s.LastTriggeredAt = tt.last
			got, err := DueAt(s, tt.now)
			if err != nil {
				t.Fatalf("DueAt error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("DueAt = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDueAtWeekly(t *testing.T) {
	t.Parallel()
	s := Schedule{Frequency: Weekly, TimeOfDay: mustTOD(t, "09:00"), DayOfWeek: intp(3)}

	// Thursday: wrong weekday, even past the slot.
	got, err := DueAt(s, time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DueAt error: %v", err)
	}
	if got {
		t.Fatal("weekly schedule due on the wrong weekday")
	}

	// Wednesday past the slot.
	got, _ = DueAt(s, time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC))
	if !got {
		t.Fatal("weekly schedule not due on its weekday past the slot")
	}
}

func TestDueAtBiweekly(t *testing.T) {
	t.Parallel()
	last := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) // Wednesday
	s := Schedule{
		Frequency:       Biweekly,
		TimeOfDay:       mustTOD(t, "09:00"),
		DayOfWeek:       intp(3),
		LastTriggeredAt: timep(last),
	}

	// The following Wednesday is mid-cycle: the coarse filter would pass it,
	// the precise check must not.
	got, err := DueAt(s, time.Date(2025, 1, 8, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DueAt error: %v", err)
	}
	if got {
		t.Fatal("biweekly schedule due after only 7 days")
	}

	// Exactly one interval after the anchor.
	got, _ = DueAt(s, last.AddDate(0, 0, 14))
	if !got {
		t.Fatal("biweekly schedule not due 14 days after the anchor")
	}

	// Never triggered: behaves like weekly.
	s.LastTriggeredAt = nil
	got, _ = DueAt(s, time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC))
	if !got {
		t.Fatal("first-ever biweekly not due on its weekday past the slot")
	}
}

func TestDueAtMonthly(t *testing.T) {
	t.Parallel()
	s := Schedule{Frequency: Monthly, TimeOfDay: mustTOD(t, "09:00"), DayOfMonth: intp(31)}

	// Clamped day in a short month.
	got, err := DueAt(s, time.Date(2025, 2, 28, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("DueAt error: %v", err)
	}
	if !got {
		t.Fatal("monthly day-31 schedule not due on Feb 28")
	}

	// Wrong day of month.
	got, _ = DueAt(s, time.Date(2025, 2, 27, 9, 30, 0, 0, time.UTC))
	if got {
		t.Fatal("monthly schedule due on the wrong day")
	}
}
