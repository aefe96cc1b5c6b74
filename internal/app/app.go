// Package app wires the services together: config, logging, storage, the
// due-schedule poller, the notification pipeline, and housekeeping.
package app

import (
	"context"
	"fmt"
	"time"

	"mindtrack/internal/commands"
	"mindtrack/internal/config"
	"mindtrack/internal/eventbus"
	"mindtrack/internal/runtime/supervisor"
	"mindtrack/internal/services/maintenance"
	"mindtrack/internal/services/notify"
	"mindtrack/internal/services/poller"
	"mindtrack/internal/storage"
	logx "mindtrack/pkg/logx"
)

type App struct {
	cfgPath string

	cfgm *config.Manager
	sup  *supervisor.Supervisor

	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store *storage.Store
	cmds  *commands.Handler

	notif *notify.Service
	poll  *poller.Service
	maint *maintenance.Service
}

func NewApp(cfgPath string) (*App, error) {
	cfgm := config.NewManager(cfgPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))

	bus := eventbus.New()

	sc, err := mapStorageConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := storage.Open(sc, log.With(logx.String("comp", "storage")))
	if err != nil {
		return nil, err
	}

	sink, err := buildSink(cfg, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("notify sink: %w", err)
	}
	notifSvc := notify.New(mapNotifyConfig(cfg), sink, log.With(logx.String("comp", "notify")))

	pc, err := mapPollerConfig(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	pollSvc := poller.New(pc, store, notifSvc, bus, log.With(logx.String("comp", "poller")))

	mc, err := mapMaintenanceConfig(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	maintSvc := maintenance.New(mc, store, log.With(logx.String("comp", "maintenance")))

	return &App{
		cfgPath: cfgPath,
		cfgm:    cfgm,
		log:     log,
		logs:    logSvc,
		bus:     bus,
		store:   store,
		cmds:    commands.New(store, log.With(logx.String("comp", "commands"))),
		notif:   notifSvc,
		poll:    pollSvc,
		maint:   maintSvc,
	}, nil
}

// Commands is the surface the UI layer drives.
func (a *App) Commands() *commands.Handler { return a.cmds }

// Done is closed when the app context is canceled (fatal error or Stop).
func (a *App) Done() <-chan struct{} {
	if a.sup == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return a.sup.Context().Done()
}

// Err returns the first fatal error observed by the supervisor, if any.
func (a *App) Err() error {
	if a.sup == nil {
		return nil
	}
	return a.sup.Err()
}

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx,
		supervisor.WithLogger(a.log),
		supervisor.WithCancelOnError(true))

	// Transactional hot reload: a bad edit is rejected before commit/publish.
	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	a.cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		if _, err := mapPollerConfig(cfg); err != nil {
			return err
		}
		if _, err := mapMaintenanceConfig(cfg); err != nil {
			return err
		}
		return nil
	})

	if a.poll.Enabled() {
		a.poll.Start(a.sup.Context())
	}
	if a.maint.Enabled() {
		a.maint.Start(a.sup.Context())
	}

	a.sup.Go0("history.writer", a.historyWriter)
	a.sup.Go0("config.reload", a.reloadLoop)
	a.sup.Go("config.watch", a.cfgm.Watch)

	a.log.Info("app started", logx.String("config", a.cfgPath))
	return nil
}

// reloadLoop applies committed config updates to the running services,
// coalescing bursts so only the newest snapshot is applied.
func (a *App) reloadLoop(ctx context.Context) {
	sub := a.cfgm.Subscribe(8)
	defer a.cfgm.Unsubscribe(sub)

	lastApplied := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case newCfg, ok := <-sub:
			if !ok {
				return
			}
			for {
				select {
				case newer := <-sub:
					if newer != nil {
						newCfg = newer
					}
				default:
					goto APPLY
				}
			}
		APPLY:
			a.applyConfig(ctx, lastApplied, newCfg)
			lastApplied = newCfg
		}
	}
}

func (a *App) applyConfig(ctx context.Context, prev, cfg *config.Config) {
	if cfg == nil {
		return
	}

	a.logs.Apply(mapLoggingConfig(cfg))

	if prev != nil && prev.Storage != cfg.Storage {
		a.log.Warn("storage config changed; restart required for changes to take effect")
	}

	// Notify: swap the sink only when its section actually changed, so a
	// telegram bot session isn't rebuilt on unrelated edits.
	if prev == nil || prev.Notify != cfg.Notify {
		sink, err := buildSink(cfg, a.log)
		if err != nil {
			a.log.Warn("invalid notify config; keeping previous sink", logx.Err(err))
		} else {
			a.notif.SetSink(sink)
		}
	}
	a.notif.Apply(mapNotifyConfig(cfg))

	if pc, err := mapPollerConfig(cfg); err != nil {
		a.log.Warn("invalid poller config; keeping previous", logx.Err(err))
	} else {
		wasEnabled := a.poll.Enabled()
		a.poll.Apply(pc)
		switch {
		case wasEnabled && !pc.Enabled:
			a.log.Info("poller disabled via config")
			stopCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
			a.poll.Stop(stopCtx)
			cancel()
		case !wasEnabled && pc.Enabled:
			a.log.Info("poller enabled via config")
			a.poll.Start(a.sup.Context())
		}
	}

	if mc, err := mapMaintenanceConfig(cfg); err != nil {
		a.log.Warn("invalid maintenance config; keeping previous", logx.Err(err))
	} else {
		a.maint.Apply(ctx, mc)
	}

	a.log.Info("config applied")
}

func (a *App) Stop(ctx context.Context) error {
	if a.sup == nil {
		return nil
	}
	a.log.Info("stopping")

	// Cancel the run context first so background loops start unwinding.
	a.sup.Cancel()

	// Bounded shutdown steps so one component can't stall the whole stop.
	step := func(name string, max time.Duration, fn func(context.Context) error) {
		stepCtx := ctx
		var cancel context.CancelFunc
		if max > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, max)
			defer cancel()
		}

		done := make(chan error, 1)
		go func() {
			defer func() {
				if r := recover(); r != nil {
					done <- fmt.Errorf("panic in stop step %s: %v", name, r)
				}
			}()
			done <- fn(stepCtx)
		}()

		select {
		case err := <-done:
			if err != nil {
				a.log.Warn("stop step error", logx.String("name", name), logx.Err(err))
			}
		case <-stepCtx.Done():
			a.log.Warn("stop step deadline reached (continuing)", logx.String("name", name))
		}
	}

	step("poller", 2*time.Second, func(c context.Context) error { a.poll.Stop(c); return nil })
	step("maintenance", 2*time.Second, func(c context.Context) error { a.maint.Stop(c); return nil })
	step("supervisor", 2*time.Second, func(c context.Context) error { return a.sup.Wait(c) })
	step("storage", 1*time.Second, func(context.Context) error { return a.store.Close() })

	a.log.Info("stopped")
	if a.logs != nil {
		a.logs.Close()
	}
	return nil
}
