package daemon

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/luxd/internal/audit"
	"git.home.luguber.info/inful/luxd/internal/events"
	"git.home.luguber.info/inful/luxd/internal/lighting"
	"git.home.luguber.info/inful/luxd/internal/state"
)

func newTestExecutor(t *testing.T) (*ScheduleExecutor, *state.Store, *state.ScheduleStore, *audit.HistoryLog) {
	t.Helper()
	dataDir := t.TempDir()

	store, err := state.NewStore(dataDir, nil)
	require.NoError(t, err)
	schedules, err := state.NewScheduleStore(dataDir)
	require.NoError(t, err)
	eventLog, err := audit.NewHistoryLog(dataDir, audit.EventHistoryFile, nil)
	require.NoError(t, err)

	e, err := NewScheduleExecutor(store, schedules, eventLog, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Stop() })
	return e, store, schedules, eventLog
}

func createSchedule(t *testing.T, ss *state.ScheduleStore, title string, start, end int, enabled bool) lighting.Schedule {
	t.Helper()
	values := lighting.Vector{10, 20, 30, 40, 50, 60}
	sched, err := ss.Create(state.ScheduleFields{
		Title:         &title,
		Start:         &start,
		End:           &end,
		ProfileName:   &title,
		ProfileValues: &values,
		Enabled:       &enabled,
	})
	require.NoError(t, err)
	return sched
}

func TestScheduleExecutor_ResyncBuildsJobsPerEnabledSchedule(t *testing.T) {
	e, _, schedules, _ := newTestExecutor(t)

	createSchedule(t, schedules, "enabled", 800, 2000, true)
	createSchedule(t, schedules, "disabled", 900, 2100, false)

	require.NoError(t, e.Resync())

	// One start job and one end job for the enabled schedule only.
	e.mu.Lock()
	defer e.mu.Unlock()
	require.Len(t, e.jobs, 2)
}

func TestScheduleExecutor_ResyncSkipsInvalidTimes(t *testing.T) {
	e, _, schedules, _ := newTestExecutor(t)

	createSchedule(t, schedules, "bad start", 2575, 800, true)

	require.NoError(t, e.Resync())

	e.mu.Lock()
	defer e.mu.Unlock()
	require.Len(t, e.jobs, 1) // only the valid end edge
}

func TestScheduleExecutor_ResyncReplacesStaleJobs(t *testing.T) {
	e, _, schedules, _ := newTestExecutor(t)

	sched := createSchedule(t, schedules, "short lived", 800, 2000, true)
	require.NoError(t, e.Resync())

	require.NoError(t, schedules.Delete(sched.ID))
	require.NoError(t, e.Resync())

	e.mu.Lock()
	defer e.mu.Unlock()
	require.Empty(t, e.jobs)
}

func TestScheduleExecutor_FireAppliesProfileValuesAtStart(t *testing.T) {
	e, store, schedules, eventLog := newTestExecutor(t)

	sched := createSchedule(t, schedules, "Night cycle", 2230, 630, true)
	e.fire(sched, events.PhaseStart)

	require.True(t, lighting.Vector{10, 20, 30, 40, 50, 60}.Equal(store.Lighting()))

	entries, err := eventLog.Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Schedule 'Night cycle' start applied [10, 20, 30, 40, 50, 60]", entries[0].Action)
	require.Equal(t, audit.StatusSuccess, entries[0].Status)
}

func TestScheduleExecutor_FireBlacksOutAtEnd(t *testing.T) {
	e, store, schedules, _ := newTestExecutor(t)

	sched := createSchedule(t, schedules, "Night cycle", 2230, 630, true)
	e.fire(sched, events.PhaseStart)
	e.fire(sched, events.PhaseEnd)

	require.True(t, lighting.Vector{}.Equal(store.Lighting()))
}
