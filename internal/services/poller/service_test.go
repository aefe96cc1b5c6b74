package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mindtrack/internal/eventbus"
	"mindtrack/internal/schedule"
	"mindtrack/internal/services/notify"
	logx "mindtrack/pkg/logx"
)

// fakeStore mimics the storage layer's coarse due filter over an in-memory
// schedule set.
type fakeStore struct {
	mu        sync.Mutex
	schedules map[string]*schedule.Schedule
	markErr   error // injected MarkTriggered failure
	marks     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{schedules: map[string]*schedule.Schedule{}}
}

func (f *fakeStore) put(sc schedule.Schedule) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := sc
	f.schedules[sc.ID] = &cp
}

func (f *fakeStore) DueSchedules(_ context.Context, now time.Time) ([]schedule.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []schedule.Schedule
	for _, sc := range f.schedules {
		if !sc.Enabled {
			continue
		}
		if sc.LastTriggeredAt != nil {
			y1, m1, d1 := sc.LastTriggeredAt.Date()
			y2, m2, d2 := now.Date()
			if y1 == y2 && m1 == m2 && d1 == d2 {
				continue
			}
		}
		if sc.TimeOfDay.Minutes() > now.Hour()*60+now.Minute() {
			continue
		}
		out = append(out, *sc)
	}
	return out, nil
}

func (f *fakeStore) MarkTriggered(_ context.Context, id string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	sc, ok := f.schedules[id]
	if !ok {
		return schedule.ErrNotFound
	}
	t := now
	sc.LastTriggeredAt = &t
	f.marks++
	return nil
}

func (f *fakeStore) last(id string) *time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.schedules[id].LastTriggeredAt
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	fail map[string]error // per-schedule failures
}

func (f *fakeNotifier) Notify(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[n.ScheduleID]; err != nil {
		return err
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func intp(v int) *int { return &v }

func testTOD(t *testing.T, s string) schedule.TimeOfDay {
	t.Helper()
	tod, err := schedule.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q): %v", s, err)
	}
	return tod
}

func newTestService(store Store, notif Notifier, bus eventbus.Bus) *Service {
	return New(Config{Enabled: true}, store, notif, bus, logx.Nop())
}

func TestRunOnceFiresAndMarks(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.put(schedule.Schedule{
		ID: "s1", SubjectID: "phq-9",
		Frequency: schedule.Daily, TimeOfDay: testTOD(t, "09:00"), Enabled: true,
	})
	notif := &fakeNotifier{}
	bus := eventbus.New()
	events, unsub := bus.Subscribe(8)
	defer unsub()

	svc := newTestService(store, notif, bus)
	now := time.Date(2025, 3, 10, 9, 1, 0, 0, time.UTC)
	svc.RunOnce(context.Background(), now)

	if notif.count() != 1 {
		t.Fatalf("sent %d notifications, want 1", notif.count())
	}
	if last := store.last("s1"); last == nil || !last.Equal(now) {
		t.Fatalf("last_triggered_at = %v, want %v", last, now)
	}
	select {
	case ev := <-events:
		if ev.Type != EventFired {
			t.Fatalf("event type = %s, want %s", ev.Type, EventFired)
		}
	default:
		t.Fatal("no event published")
	}
	hist := svc.History()
	if len(hist) != 1 || hist[0].ScheduleID != "s1" || hist[0].NotifyErr != "" {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestRunOnceMarksDespiteNotifyFailure(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.put(schedule.Schedule{
		ID: "s1", SubjectID: "phq-9",
		Frequency: schedule.Daily, TimeOfDay: testTOD(t, "09:00"), Enabled: true,
	})
	notif := &fakeNotifier{fail: map[string]error{"s1": errors.New("sink offline")}}

	svc := newTestService(store, notif, nil)
	now := time.Date(2025, 3, 10, 9, 1, 0, 0, time.UTC)
	svc.RunOnce(context.Background(), now)

	// A broken sink must not cause re-delivery every cycle.
	if last := store.last("s1"); last == nil || !last.Equal(now) {
		t.Fatalf("schedule not marked after notify failure: %v", last)
	}
	svc.RunOnce(context.Background(), now.Add(time.Minute))
	if store.marks != 1 {
		t.Fatalf("marked %d times, want 1", store.marks)
	}
}

func TestRunOnceRetriesAfterMarkFailure(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.put(schedule.Schedule{
		ID: "s1", SubjectID: "phq-9",
		Frequency: schedule.Daily, TimeOfDay: testTOD(t, "09:00"), Enabled: true,
	})
	store.markErr = errors.New("disk full")
	notif := &fakeNotifier{}

	svc := newTestService(store, notif, nil)
	now := time.Date(2025, 3, 10, 9, 1, 0, 0, time.UTC)
	svc.RunOnce(context.Background(), now)

	if store.last("s1") != nil {
		t.Fatal("mark should have failed")
	}

	// Next cycle re-detects and succeeds once storage recovers.
	store.mu.Lock()
	store.markErr = nil
	store.mu.Unlock()
	svc.RunOnce(context.Background(), now.Add(time.Minute))
	if store.last("s1") == nil {
		t.Fatal("schedule not re-detected after mark failure")
	}
	if notif.count() != 2 {
		t.Fatalf("sent %d notifications, want 2 (one per cycle)", notif.count())
	}
}

func TestRunOnceSkipsCoarseFalsePositive(t *testing.T) {
	t.Parallel()
	// Biweekly, last fired 7 days ago on the anchor weekday: passes the
	// day-granularity filter, must not fire.
	last := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) // Wednesday
	store := newFakeStore()
	store.put(schedule.Schedule{
		ID: "s1", SubjectID: "phq-9",
		Frequency: schedule.Biweekly, TimeOfDay: testTOD(t, "09:00"),
		DayOfWeek: intp(3), Enabled: true, LastTriggeredAt: &last,
	})
	notif := &fakeNotifier{}

	svc := newTestService(store, notif, nil)
	svc.RunOnce(context.Background(), time.Date(2025, 1, 8, 9, 30, 0, 0, time.UTC))

	if notif.count() != 0 {
		t.Fatal("biweekly fired mid-cycle")
	}
	if !store.last("s1").Equal(last) {
		t.Fatalf("last_triggered_at moved: %v", store.last("s1"))
	}

	// On the real boundary it fires.
	svc.RunOnce(context.Background(), time.Date(2025, 1, 15, 9, 30, 0, 0, time.UTC))
	if notif.count() != 1 {
		t.Fatal("biweekly did not fire on the 14-day boundary")
	}
}

func TestRunOnceFailureDoesNotBlockOthers(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.put(schedule.Schedule{
		ID: "bad", SubjectID: "phq-9",
		Frequency: schedule.Daily, TimeOfDay: testTOD(t, "08:00"), Enabled: true,
	})
	store.put(schedule.Schedule{
		ID: "good", SubjectID: "gad-7",
		Frequency: schedule.Daily, TimeOfDay: testTOD(t, "08:30"), Enabled: true,
	})
	notif := &fakeNotifier{fail: map[string]error{"bad": errors.New("boom")}}

	svc := newTestService(store, notif, nil)
	svc.RunOnce(context.Background(), time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))

	if notif.count() != 1 {
		t.Fatalf("sent %d notifications, want 1 (the healthy schedule)", notif.count())
	}
	if store.last("good") == nil {
		t.Fatal("healthy schedule not marked")
	}
}

func TestConsecutiveWakesFireOncePerDay(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	store.put(schedule.Schedule{
		ID: "s1", SubjectID: "phq-9",
		Frequency: schedule.Daily, TimeOfDay: testTOD(t, "09:00"), Enabled: true,
	})
	notif := &fakeNotifier{}
	svc := newTestService(store, notif, nil)

	// Simulate a day of one-minute wakes.
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24*60; i++ {
		svc.RunOnce(context.Background(), now)
		now = now.Add(time.Minute)
	}
	if notif.count() != 1 {
		t.Fatalf("fired %d times in one day, want 1", notif.count())
	}

	// And once more the following day.
	for i := 0; i < 24*60; i++ {
		svc.RunOnce(context.Background(), now)
		now = now.Add(time.Minute)
	}
	if notif.count() != 2 {
		t.Fatalf("fired %d times in two days, want 2", notif.count())
	}
}

func TestStartStop(t *testing.T) {
	t.Parallel()
	store := newFakeStore()
	notif := &fakeNotifier{}
	svc := New(Config{Enabled: true, Interval: 10 * time.Millisecond}, store, notif, nil, logx.Nop())

	ctx := context.Background()
	svc.Start(ctx)
	time.Sleep(50 * time.Millisecond)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	svc.Stop(stopCtx)

	// Second stop is a no-op.
	svc.Stop(stopCtx)
}

func TestDisabledServiceDoesNotStart(t *testing.T) {
	t.Parallel()
	svc := New(Config{Enabled: false}, newFakeStore(), &fakeNotifier{}, nil, logx.Nop())
	svc.Start(context.Background())
	svc.Stop(context.Background())
}
