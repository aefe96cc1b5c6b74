package maintenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	logx "mindtrack/pkg/logx"
)

type fakeStore struct {
	mu         sync.Mutex
	pruneCalls []time.Time
	pruneErr   error
	maintains  int
}

func (f *fakeStore) PruneReminderEvents(_ context.Context, olderThan time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pruneErr != nil {
		return 0, f.pruneErr
	}
	f.pruneCalls = append(f.pruneCalls, olderThan)
	return 3, nil
}

func (f *fakeStore) Maintain(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.maintains++
	return nil
}

func TestPruneCutoffHonorsRetention(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	svc := New(Config{Enabled: true, KeepEvents: 48 * time.Hour}, store, logx.Nop())

	before := time.Now().Add(-48 * time.Hour)
	svc.prune(context.Background())
	after := time.Now().Add(-48 * time.Hour)

	store.mu.Lock()
	defer store.mu.Unlock()
	if len(store.pruneCalls) != 1 {
		t.Fatalf("prune called %d times, want 1", len(store.pruneCalls))
	}
	cutoff := store.pruneCalls[0]
	if cutoff.Before(before) || cutoff.After(after) {
		t.Fatalf("cutoff %v outside [%v, %v]", cutoff, before, after)
	}
}

func TestPruneFailureIsNonFatal(t *testing.T) {
	t.Parallel()
	store := &fakeStore{pruneErr: errors.New("locked")}
	svc := New(Config{Enabled: true}, store, logx.Nop())
	svc.prune(context.Background()) // must not panic
}

func TestVacuumCallsMaintain(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	svc := New(Config{Enabled: true}, store, logx.Nop())
	svc.vacuum(context.Background())

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.maintains != 1 {
		t.Fatalf("Maintain called %d times, want 1", store.maintains)
	}
}

func TestStartStopLifecycle(t *testing.T) {
	t.Parallel()
	store := &fakeStore{}
	svc := New(Config{Enabled: true}, store, logx.Nop())

	ctx := context.Background()
	svc.Start(ctx)
	svc.Start(ctx) // idempotent

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	svc.Stop(stopCtx)
	svc.Stop(stopCtx) // no-op
}

func TestDisabledDoesNotStart(t *testing.T) {
	t.Parallel()
	svc := New(Config{Enabled: false}, &fakeStore{}, logx.Nop())
	svc.Start(context.Background())

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.c != nil {
		t.Fatal("disabled service started cron")
	}
}

func TestDefaultSpecs(t *testing.T) {
	t.Parallel()
	cfg := Config{}.withDefaults()
	if cfg.PruneSpec != "@daily" || cfg.VacuumSpec != "@weekly" {
		t.Fatalf("unexpected default specs: %+v", cfg)
	}
	if cfg.KeepEvents != 90*24*time.Hour {
		t.Fatalf("unexpected default retention: %v", cfg.KeepEvents)
	}
}
