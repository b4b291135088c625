package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/luxd/internal/events"
	"git.home.luguber.info/inful/luxd/internal/state"
)

// RecordWatcher monitors the profile and schedule record directories for
// out-of-band edits (records copied in over scp, deleted by hand). Edits
// are debounced, reported through OnChange, and noted in the event
// history by the daemon.
type RecordWatcher struct {
	dataDir  string
	watcher  *fsnotify.Watcher
	OnChange func(kind events.RecordKind)

	mu           sync.Mutex
	stopChan     chan struct{}
	debounceTime time.Duration
	pending      map[events.RecordKind]*time.Timer
}

// NewRecordWatcher creates a watcher over dataDir's record directories.
func NewRecordWatcher(dataDir string) (*RecordWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &RecordWatcher{
		dataDir:      dataDir,
		watcher:      watcher,
		stopChan:     make(chan struct{}),
		debounceTime: 2 * time.Second, // Debounce rapid file changes
		pending:      make(map[events.RecordKind]*time.Timer),
	}, nil
}

// Start begins monitoring. It returns after the watch goroutine is running.
func (rw *RecordWatcher) Start(ctx context.Context) error {
	profilesDir := filepath.Join(rw.dataDir, state.ProfilesDir)
	schedulesDir := filepath.Join(rw.dataDir, state.SchedulesDir)

	if err := rw.watcher.Add(profilesDir); err != nil {
		return err
	}
	if err := rw.watcher.Add(schedulesDir); err != nil {
		return err
	}

	go rw.watchLoop(ctx, profilesDir, schedulesDir)
	slog.Info("Record watcher started", "profiles", profilesDir, "schedules", schedulesDir)
	return nil
}

func (rw *RecordWatcher) watchLoop(ctx context.Context, profilesDir, schedulesDir string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rw.stopChan:
			return
		case event, ok := <-rw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			switch filepath.Dir(event.Name) {
			case profilesDir:
				rw.scheduleNotify(events.KindProfiles)
			case schedulesDir:
				rw.scheduleNotify(events.KindSchedules)
			}
		case err, ok := <-rw.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("record watcher error", "error", err)
		}
	}
}

// scheduleNotify coalesces rapid file events per record kind.
func (rw *RecordWatcher) scheduleNotify(kind events.RecordKind) {
	rw.mu.Lock()
	defer rw.mu.Unlock()

	if t, ok := rw.pending[kind]; ok {
		t.Stop()
	}
	rw.pending[kind] = time.AfterFunc(rw.debounceTime, func() {
		rw.mu.Lock()
		delete(rw.pending, kind)
		rw.mu.Unlock()
		if rw.OnChange != nil {
			rw.OnChange(kind)
		}
	})
}

// Stop shuts the watcher down.
func (rw *RecordWatcher) Stop() error {
	rw.mu.Lock()
	select {
	case <-rw.stopChan:
	default:
		close(rw.stopChan)
	}
	for kind, t := range rw.pending {
		t.Stop()
		delete(rw.pending, kind)
	}
	rw.mu.Unlock()
	return rw.watcher.Close()
}
