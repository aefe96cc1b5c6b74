package notify

import (
	"context"
	"errors"
	"testing"

	logx "mindtrack/pkg/logx"
)

type fakeSink struct {
	name string
	err  error
	sent []Notification
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Send(_ context.Context, n Notification) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, n)
	return nil
}

func TestNotifyDeliversAndRecordsHistory(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{name: "fake"}
	svc := New(Config{RatePerSec: 100}, sink, logx.Nop())

	err := svc.Notify(context.Background(), Notification{
		Title: "Check-in reminder", ScheduleID: "s1", SubjectID: "phq-9",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("sink received %d notifications, want 1", len(sink.sent))
	}
	hist := svc.History()
	if len(hist) != 1 || hist[0].ScheduleID != "s1" || hist[0].Sink != "fake" || hist[0].Error != "" {
		t.Fatalf("unexpected history: %+v", hist)
	}
}

func TestNotifyFailureIsReturnedAndRecorded(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{name: "fake", err: errors.New("offline")}
	svc := New(Config{RatePerSec: 100}, sink, logx.Nop())

	err := svc.Notify(context.Background(), Notification{ScheduleID: "s1"})
	if err == nil {
		t.Fatal("expected error from failing sink")
	}
	hist := svc.History()
	if len(hist) != 1 || hist[0].Error == "" {
		t.Fatalf("failure not recorded: %+v", hist)
	}
}

func TestNotifyHonorsCanceledContext(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{name: "fake"}
	// Rate 1/s with an empty bucket forces the limiter to wait, which the
	// canceled context must interrupt.
	svc := New(Config{RatePerSec: 1}, sink, logx.Nop())
	_ = svc.Notify(context.Background(), Notification{ScheduleID: "warmup"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Notify(ctx, Notification{ScheduleID: "s1"}); err == nil {
		t.Fatal("expected error from canceled context")
	}
	if len(sink.sent) != 1 {
		t.Fatalf("sink received %d notifications, want 1 (warmup only)", len(sink.sent))
	}
}

func TestSetSinkSwaps(t *testing.T) {
	t.Parallel()
	first := &fakeSink{name: "first"}
	second := &fakeSink{name: "second"}
	svc := New(Config{RatePerSec: 100}, first, logx.Nop())

	svc.SetSink(second)
	if svc.SinkName() != "second" {
		t.Fatalf("active sink = %q, want second", svc.SinkName())
	}
	if err := svc.Notify(context.Background(), Notification{ScheduleID: "s1"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(first.sent) != 0 || len(second.sent) != 1 {
		t.Fatalf("delivery went to wrong sink: first=%d second=%d", len(first.sent), len(second.sent))
	}
}

func TestHistoryIsBounded(t *testing.T) {
	t.Parallel()
	sink := &fakeSink{name: "fake"}
	svc := New(Config{RatePerSec: 1000, HistorySize: 5}, sink, logx.Nop())

	for i := 0; i < 12; i++ {
		_ = svc.Notify(context.Background(), Notification{ScheduleID: "s1"})
	}
	if got := len(svc.History()); got != 5 {
		t.Fatalf("history length = %d, want 5", got)
	}
}
