package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/luxd/internal/audit"
	"git.home.luguber.info/inful/luxd/internal/events"
	"git.home.luguber.info/inful/luxd/internal/lighting"
	"git.home.luguber.info/inful/luxd/internal/logfields"
	"git.home.luguber.info/inful/luxd/internal/state"
)

// ScheduleExecutor turns enabled schedule records into gocron jobs: the
// schedule's profile values are applied at its start time and the
// fixture is blacked out at its end time. Both firings are state-store
// writes, so they broadcast and debounce-log like any other accepted
// change.
type ScheduleExecutor struct {
	scheduler gocron.Scheduler
	store     *state.Store
	schedules *state.ScheduleStore
	eventLog  *audit.HistoryLog
	bus       *events.Bus
	metrics   *Metrics

	mu   sync.Mutex
	jobs []uuid.UUID
}

// NewScheduleExecutor creates the executor; call Resync to load jobs.
func NewScheduleExecutor(store *state.Store, schedules *state.ScheduleStore, eventLog *audit.HistoryLog, bus *events.Bus, metrics *Metrics) (*ScheduleExecutor, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &ScheduleExecutor{
		scheduler: s,
		store:     store,
		schedules: schedules,
		eventLog:  eventLog,
		bus:       bus,
		metrics:   metrics,
	}, nil
}

// Start begins the underlying scheduler.
func (e *ScheduleExecutor) Start() {
	slog.Info("Starting schedule executor")
	e.scheduler.Start()
}

// Stop gracefully shuts down the underlying scheduler.
func (e *ScheduleExecutor) Stop() error {
	slog.Info("Stopping schedule executor")
	return e.scheduler.Shutdown()
}

// Resync replaces all jobs with ones derived from the current enabled
// schedule records. Called after every schedule CRUD and on watcher
// events.
func (e *ScheduleExecutor) Resync() error {
	records, err := e.schedules.List()
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, id := range e.jobs {
		if err := e.scheduler.RemoveJob(id); err != nil {
			slog.Debug("stale schedule job not removed", "job_id", id.String(), "error", err)
		}
	}
	e.jobs = e.jobs[:0]

	for _, sched := range records {
		if !sched.Enabled {
			continue
		}
		e.addJobUnsafe(sched, events.PhaseStart)
		e.addJobUnsafe(sched, events.PhaseEnd)
	}

	slog.Info("Schedule jobs synced", "jobs", len(e.jobs))
	return nil
}

// addJobUnsafe registers one daily job for a schedule edge. Caller must
// hold e.mu.
func (e *ScheduleExecutor) addJobUnsafe(sched lighting.Schedule, phase events.SchedulePhase) {
	military := sched.Start
	if phase == events.PhaseEnd {
		military = sched.End
	}
	hour, minute := military/100, military%100
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		slog.Warn("schedule has invalid time, skipping job",
			logfields.ScheduleID(sched.ID), "phase", string(phase), "time", military)
		return
	}

	job, err := e.scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(uint(hour), uint(minute), 0))),
		gocron.NewTask(e.fire, sched, phase),
		gocron.WithName(sched.Title+"-"+string(phase)),
	)
	if err != nil {
		slog.Error("schedule job not created", logfields.ScheduleID(sched.ID), "error", err)
		return
	}
	e.jobs = append(e.jobs, job.ID())
}

// fire is called by gocron when a schedule edge triggers.
func (e *ScheduleExecutor) fire(sched lighting.Schedule, phase events.SchedulePhase) {
	runID := uuid.NewString()

	values := sched.ProfileValues
	if phase == events.PhaseEnd {
		values = lighting.Vector{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("Schedule fired",
		logfields.ScheduleID(sched.ID), logfields.RunID(runID), "phase", string(phase))

	if err := e.store.Apply(ctx, lighting.StateUpdate{Lighting: &values}, lighting.OriginLocal); err != nil {
		slog.Error("scheduled lighting change failed",
			logfields.ScheduleID(sched.ID), logfields.RunID(runID), logfields.Error(err))
		_ = e.eventLog.Append("Schedule '"+sched.Title+"' "+string(phase)+" failed", audit.StatusError)
		return
	}

	if e.metrics != nil {
		e.metrics.ScheduleRunsTotal.Inc()
	}
	_ = e.eventLog.Append("Schedule '"+sched.Title+"' "+string(phase)+" applied "+values.String(), audit.StatusSuccess)

	if e.bus != nil {
		evt := events.ScheduleFired{ScheduleID: sched.ID, RunID: runID, Phase: phase, At: time.Now()}
		if err := e.bus.Publish(ctx, evt); err != nil {
			slog.Debug("schedule fired event not delivered", "error", err)
		}
	}
}
