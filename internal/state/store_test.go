package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/luxd/internal/events"
	"git.home.luguber.info/inful/luxd/internal/lighting"
)

func TestStore_ApplyPersistsAndReloads(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, nil)
	require.NoError(t, err)

	v := lighting.Vector{10, 20, 30, 40, 50, 60}
	schedules := []lighting.Schedule{{ID: "1", Title: "dawn", ProfileValues: v, Enabled: true}}
	update := lighting.StateUpdate{Lighting: &v, Schedules: &schedules}
	require.NoError(t, store.Apply(context.Background(), update, lighting.OriginLocal))

	// A fresh store over the same directory must see the persisted state.
	reloaded, err := NewStore(dir, nil)
	require.NoError(t, err)

	gotVector, gotSchedules := reloaded.Get()
	require.True(t, v.Equal(gotVector))
	require.Len(t, gotSchedules, 1)
	require.Equal(t, "dawn", gotSchedules[0].Title)
}

func TestStore_PartialUpdateLeavesOtherFieldsIntact(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	v := lighting.Vector{1, 1, 1, 1, 1, 1}
	schedules := []lighting.Schedule{{ID: "1", Title: "keep me"}}
	require.NoError(t, store.Apply(context.Background(),
		lighting.StateUpdate{Lighting: &v, Schedules: &schedules}, lighting.OriginLocal))

	v2 := lighting.Vector{9, 9, 9, 9, 9, 9}
	require.NoError(t, store.Apply(context.Background(),
		lighting.StateUpdate{Lighting: &v2}, lighting.OriginRemote))

	gotVector, gotSchedules := store.Get()
	require.True(t, v2.Equal(gotVector))
	require.Len(t, gotSchedules, 1)
	require.Equal(t, "keep me", gotSchedules[0].Title)
}

func TestStore_CorruptSnapshotLoadsDefaults(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SnapshotFile), []byte("{not json"), 0o644))

	store, err := NewStore(dir, nil)
	require.NoError(t, err)

	gotVector, gotSchedules := store.Get()
	require.True(t, lighting.Vector{}.Equal(gotVector))
	require.Empty(t, gotSchedules)
}

func TestStore_MissingSnapshotLoadsDefaults(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	gotVector, gotSchedules := store.Get()
	require.True(t, lighting.Vector{}.Equal(gotVector))
	require.Empty(t, gotSchedules)
}

func TestStore_PublishesLightingChangedOnVectorChange(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	store, err := NewStore(t.TempDir(), bus)
	require.NoError(t, err)

	ch, unsub := events.Subscribe[events.LightingChanged](bus, 4)
	defer unsub()

	v := lighting.Vector{0, 50, 0, 0, 0, 0}
	require.NoError(t, store.Apply(context.Background(),
		lighting.StateUpdate{Lighting: &v}, lighting.OriginRemote))

	evt := <-ch
	require.True(t, lighting.Vector{}.Equal(evt.Prev))
	require.True(t, v.Equal(evt.New))
	require.Equal(t, lighting.OriginRemote, evt.Origin)
}

func TestStore_NoEventWhenVectorUnchanged(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()

	store, err := NewStore(t.TempDir(), bus)
	require.NoError(t, err)

	ch, unsub := events.Subscribe[events.LightingChanged](bus, 4)
	defer unsub()

	// Same vector as current (zero), plus a schedule change.
	v := lighting.Vector{}
	schedules := []lighting.Schedule{{ID: "1"}}
	require.NoError(t, store.Apply(context.Background(),
		lighting.StateUpdate{Lighting: &v, Schedules: &schedules}, lighting.OriginLocal))

	select {
	case <-ch:
		t.Fatal("no event expected for an unchanged vector")
	default:
	}
}

func TestStore_GetReturnsScheduleCopy(t *testing.T) {
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)

	schedules := []lighting.Schedule{{ID: "1", Title: "original"}}
	require.NoError(t, store.Apply(context.Background(),
		lighting.StateUpdate{Schedules: &schedules}, lighting.OriginLocal))

	_, got := store.Get()
	got[0].Title = "mutated"

	_, again := store.Get()
	require.Equal(t, "original", again[0].Title)
}
