// Package state owns the durable state of the fixture: the current
// lighting vector plus schedule list (single snapshot file) and the
// file-per-record profile and schedule repositories.
package state

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
	"git.home.luguber.info/inful/luxd/internal/events"
	"git.home.luguber.info/inful/luxd/internal/lighting"
)

// SnapshotFile is the snapshot filename inside the data directory.
const SnapshotFile = "state.json"

// snapshot is the persisted form of the store.
type snapshot struct {
	Lighting  lighting.Vector     `json:"lighting"`
	Schedules []lighting.Schedule `json:"schedules"`
}

// Store is the sole mutable owner of the current lighting vector and
// schedule list. Every accepted mutation is persisted synchronously to
// the snapshot file before Apply returns; the write is not crash-atomic,
// a crash mid-write can leave a truncated file (known limitation).
type Store struct {
	path string
	bus  *events.Bus

	mu        sync.Mutex
	lighting  lighting.Vector
	schedules []lighting.Schedule
}

// NewStore creates a Store persisting to dataDir/state.json and loads
// any existing snapshot. A corrupt or missing snapshot silently degrades
// to a zeroed vector and an empty schedule list; that behavior is load
// tolerance, not error handling, and is deliberately not surfaced.
func NewStore(dataDir string, bus *events.Bus) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, luxerrors.IOFailure("create data directory", err)
	}

	s := &Store{
		path: filepath.Join(dataDir, SnapshotFile),
		bus:  bus,
	}
	s.loadFromDisk()
	return s, nil
}

func (s *Store) loadFromDisk() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Debug("snapshot unreadable, starting from defaults", "path", s.path, "error", err)
		}
		return
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		slog.Debug("snapshot corrupt, starting from defaults", "path", s.path, "error", err)
		return
	}

	s.lighting = snap.Lighting
	s.schedules = snap.Schedules
}

// saveUnsafe persists the full snapshot. Caller must hold s.mu.
func (s *Store) saveUnsafe() error {
	snap := snapshot{Lighting: s.lighting, Schedules: s.schedules}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return luxerrors.InternalError("marshal snapshot", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return luxerrors.IOFailure("write snapshot", err)
	}
	return nil
}

// Get returns the current lighting vector and a copy of the schedule list.
func (s *Store) Get() (lighting.Vector, []lighting.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	schedules := make([]lighting.Schedule, len(s.schedules))
	copy(schedules, s.schedules)
	return s.lighting, schedules
}

// Lighting returns only the current vector.
func (s *Store) Lighting() lighting.Vector {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lighting
}

// Apply applies a partial update. Fields absent from the update leave
// the corresponding store field untouched. The mutex spans the whole
// read-modify-persist sequence so concurrent accepted writes serialize
// and the snapshot always reflects the later of two racing writes.
//
// If the vector changed, a LightingChanged event is published after the
// lock is released.
func (s *Store) Apply(ctx context.Context, update lighting.StateUpdate, origin lighting.Origin) error {
	s.mu.Lock()

	prev := s.lighting
	changed := false

	if update.Lighting != nil && !update.Lighting.Equal(prev) {
		s.lighting = *update.Lighting
		changed = true
	}
	if update.Schedules != nil {
		s.schedules = make([]lighting.Schedule, len(*update.Schedules))
		copy(s.schedules, *update.Schedules)
	}

	if err := s.saveUnsafe(); err != nil {
		// Keep the in-memory mutation; disk is best-effort last-writer-wins.
		s.mu.Unlock()
		return err
	}
	current := s.lighting
	s.mu.Unlock()

	if changed && s.bus != nil {
		evt := events.LightingChanged{
			Prev:   prev,
			New:    current,
			Origin: origin,
			At:     time.Now(),
		}
		if err := s.bus.Publish(ctx, evt); err != nil {
			slog.Warn("lighting change event not delivered", "error", err)
		}
	}

	return nil
}
