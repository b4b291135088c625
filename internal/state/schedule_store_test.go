package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
	"git.home.luguber.info/inful/luxd/internal/lighting"
)

func ptr[T any](v T) *T { return &v }

func fullFields() ScheduleFields {
	return ScheduleFields{
		Title:         ptr("Night cycle"),
		Start:         ptr(2230),
		End:           ptr(630),
		ProfileName:   ptr("moonlight"),
		ProfileValues: ptr(lighting.Vector{5, 0, 0, 10, 0, 2}),
		Enabled:       ptr(true),
	}
}

func TestScheduleStore_CreateGeneratesEpochMillisID(t *testing.T) {
	ss, err := NewScheduleStore(t.TempDir())
	require.NoError(t, err)
	ss.now = func() time.Time { return time.UnixMilli(1700000000123) }

	sched, err := ss.Create(fullFields())
	require.NoError(t, err)
	require.Equal(t, "1700000000123", sched.ID)
	require.Equal(t, "Night cycle", sched.Title)
}

func TestScheduleStore_CreateRejectsMissingFields(t *testing.T) {
	ss, err := NewScheduleStore(t.TempDir())
	require.NoError(t, err)

	fields := fullFields()
	fields.End = nil
	_, err = ss.Create(fields)
	require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryValidation))

	// Zero values are legal, only absence is not.
	fields = fullFields()
	fields.Start = ptr(0)
	fields.Enabled = ptr(false)
	_, err = ss.Create(fields)
	require.NoError(t, err)
}

func TestScheduleStore_UpdateIsWholesaleReplace(t *testing.T) {
	ss, err := NewScheduleStore(t.TempDir())
	require.NoError(t, err)

	created, err := ss.Create(fullFields())
	require.NoError(t, err)

	fields := fullFields()
	fields.Title = ptr("Renamed")
	fields.Enabled = ptr(false)
	updated, err := ss.Update(created.ID, fields)
	require.NoError(t, err)
	require.Equal(t, created.ID, updated.ID)
	require.Equal(t, "Renamed", updated.Title)
	require.False(t, updated.Enabled)

	list, err := ss.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Renamed", list[0].Title)
}

func TestScheduleStore_UpdateUnknownIsNotFound(t *testing.T) {
	ss, err := NewScheduleStore(t.TempDir())
	require.NoError(t, err)

	_, err = ss.Update("1234567890", fullFields())
	require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryNotFound))
}

func TestScheduleStore_DeleteLifecycle(t *testing.T) {
	ss, err := NewScheduleStore(t.TempDir())
	require.NoError(t, err)

	created, err := ss.Create(fullFields())
	require.NoError(t, err)

	require.NoError(t, ss.Delete(created.ID))
	err = ss.Delete(created.ID)
	require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryNotFound))
}

func TestScheduleStore_RejectsNonNumericIDs(t *testing.T) {
	ss, err := NewScheduleStore(t.TempDir())
	require.NoError(t, err)

	for _, id := range []string{"", "../1", "abc", "12a"} {
		err := ss.Delete(id)
		require.True(t, luxerrors.HasCategory(err, luxerrors.CategoryNotFound), "id %q", id)
	}
}

func TestScheduleStore_ListSkipsCorruptRecords(t *testing.T) {
	dataDir := t.TempDir()
	ss, err := NewScheduleStore(dataDir)
	require.NoError(t, err)

	_, err = ss.Create(fullFields())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, SchedulesDir, "999.json"), []byte("broken"), 0o644))

	list, err := ss.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
}
