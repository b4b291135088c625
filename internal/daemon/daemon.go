// Package daemon wires the luxd components together: arbitration, state,
// audit, broadcast, scheduling, and the HTTP API.
package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"

	"git.home.luguber.info/inful/luxd/internal/arbiter"
	"git.home.luguber.info/inful/luxd/internal/audit"
	"git.home.luguber.info/inful/luxd/internal/broadcast"
	"git.home.luguber.info/inful/luxd/internal/config"
	"git.home.luguber.info/inful/luxd/internal/events"
	"git.home.luguber.info/inful/luxd/internal/state"
)

// Daemon owns every long-lived component and their lifecycle.
type Daemon struct {
	cfg *config.Config

	bus       *events.Bus
	arbiter   *arbiter.Arbiter
	store     *state.Store
	profiles  *state.ProfileStore
	schedules *state.ScheduleStore

	archive   *audit.Archive // nil unless enabled
	eventLog  *audit.HistoryLog
	ledLog    *audit.HistoryLog
	debouncer *audit.DebounceLogger

	hub  *broadcast.Hub
	nats *broadcast.NATSPublisher // nil unless enabled

	executor *ScheduleExecutor // nil when disabled
	watcher  *RecordWatcher    // nil when disabled

	metrics    *Metrics
	httpServer *HTTPServer

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New builds a Daemon from configuration. Nothing runs until Start.
func New(cfg *config.Config) (*Daemon, error) {
	d := &Daemon{
		cfg:     cfg,
		bus:     events.NewBus(),
		arbiter: arbiter.New(cfg.Control.LockoutWindow),
		metrics: NewMetrics(),
	}

	dataDir := cfg.Storage.DataDir

	var err error
	if d.store, err = state.NewStore(dataDir, d.bus); err != nil {
		return nil, err
	}
	if d.profiles, err = state.NewProfileStore(dataDir); err != nil {
		return nil, err
	}
	if d.schedules, err = state.NewScheduleStore(dataDir); err != nil {
		return nil, err
	}

	if cfg.Archive.Enabled {
		if d.archive, err = audit.NewArchive(filepath.Join(dataDir, audit.LogsDir, "audit.db")); err != nil {
			return nil, err
		}
	}
	if d.eventLog, err = audit.NewHistoryLog(dataDir, audit.EventHistoryFile, d.archive); err != nil {
		return nil, err
	}
	if d.ledLog, err = audit.NewHistoryLog(dataDir, audit.LEDHistoryFile, nil); err != nil {
		return nil, err
	}
	d.debouncer = audit.NewDebounceLogger(d.eventLog, cfg.Control.DebounceCooldown)

	d.hub = broadcast.NewHub(d.store.Lighting)
	d.hub.ClientCountChanged = func(n int) {
		d.metrics.SSEClients.Set(float64(n))
	}

	if cfg.NATS.Enabled {
		pub, err := broadcast.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			// Best-effort integration: run without it.
			slog.Warn("nats publisher unavailable", "error", err)
		} else {
			d.nats = pub
		}
	}

	if !cfg.Scheduler.Disabled {
		if d.executor, err = NewScheduleExecutor(d.store, d.schedules, d.eventLog, d.bus, d.metrics); err != nil {
			return nil, err
		}
	}

	if !cfg.Watcher.Disabled {
		if d.watcher, err = NewRecordWatcher(dataDir); err != nil {
			return nil, err
		}
		d.watcher.OnChange = d.onRecordsChanged
	}

	d.httpServer = NewHTTPServer(cfg, d)
	return d, nil
}

// Start runs the daemon until ctx is canceled or the HTTP server fails.
func (d *Daemon) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.startSubscriber(func() { d.debouncer.Run(ctx, d.bus) })
	d.startSubscriber(func() { d.hub.Run(ctx, d.bus) })
	d.startSubscriber(func() { d.runChangeRecorder(ctx) })
	if d.nats != nil {
		d.startSubscriber(func() { d.nats.Run(ctx, d.bus) })
	}

	if d.executor != nil {
		d.executor.Start()
		if err := d.executor.Resync(); err != nil {
			slog.Warn("initial schedule sync failed", "error", err)
		}
	}

	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			return err
		}
	}

	if err := d.eventLog.Append("Daemon started", audit.StatusSuccess); err != nil {
		slog.Warn("startup audit entry not written", "error", err)
	}

	return d.httpServer.Start(ctx)
}

func (d *Daemon) startSubscriber(fn func()) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fn()
	}()
}

// runChangeRecorder appends every accepted lighting change to the device
// history and counts broadcast frames.
func (d *Daemon) runChangeRecorder(ctx context.Context) {
	ch, unsubscribe := events.Subscribe[events.LightingChanged](d.bus, 64)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			d.metrics.BroadcastsTotal.Inc()
			if err := d.ledLog.Append("LED state changed to "+evt.New.String(), audit.StatusSuccess); err != nil {
				slog.Warn("device history entry not written", "error", err)
			}
		}
	}
}

// onRecordsChanged handles out-of-band record edits found by the watcher.
func (d *Daemon) onRecordsChanged(kind events.RecordKind) {
	slog.Info("Record files changed on disk", "kind", string(kind))
	_ = d.eventLog.Append("Record files changed on disk: "+string(kind), audit.StatusSuccess)

	if kind == events.KindSchedules && d.executor != nil {
		if err := d.executor.Resync(); err != nil {
			slog.Warn("schedule resync after disk change failed", "error", err)
		}
	}
}

// Stop tears the daemon down: HTTP first so no new writes arrive, then
// timers and integrations, then a final audit entry.
func (d *Daemon) Stop(ctx context.Context) error {
	if d.cancel != nil {
		d.cancel()
	}

	if err := d.httpServer.Shutdown(ctx); err != nil {
		slog.Warn("http shutdown", "error", err)
	}
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			slog.Warn("watcher shutdown", "error", err)
		}
	}
	if d.executor != nil {
		if err := d.executor.Stop(); err != nil {
			slog.Warn("executor shutdown", "error", err)
		}
	}

	// Emit any in-flight burst before the final entry.
	d.debouncer.Flush()
	if err := d.eventLog.Append("Daemon shutdown", audit.StatusSuccess); err != nil {
		slog.Warn("shutdown audit entry not written", "error", err)
	}

	d.hub.Close()
	if d.nats != nil {
		d.nats.Close()
	}
	d.bus.Close()
	d.wg.Wait()

	if d.archive != nil {
		if err := d.archive.Close(); err != nil {
			slog.Warn("archive close", "error", err)
		}
	}
	return nil
}
