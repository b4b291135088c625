package state

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
	"git.home.luguber.info/inful/luxd/internal/lighting"
)

// SchedulesDir is the schedule record directory inside the data directory.
const SchedulesDir = "schedules"

// ScheduleFields carries the caller-supplied fields of a schedule
// create or update. Pointers distinguish absent from zero so a create
// can reject any missing field; start of 0 (midnight) and enabled=false
// are both legal values.
type ScheduleFields struct {
	Title         *string          `json:"title"`
	Start         *int             `json:"start"`
	End           *int             `json:"end"`
	ProfileName   *string          `json:"profile_name"`
	ProfileValues *lighting.Vector `json:"profile_values"`
	Enabled       *bool            `json:"enabled"`
}

func (f ScheduleFields) missingField() string {
	switch {
	case f.Title == nil:
		return "title"
	case f.Start == nil:
		return "start"
	case f.End == nil:
		return "end"
	case f.ProfileName == nil:
		return "profile_name"
	case f.ProfileValues == nil:
		return "profile_values"
	case f.Enabled == nil:
		return "enabled"
	}
	return ""
}

// ScheduleStore is a file-per-record store for timed lighting programs,
// with the same repository-wide lock discipline as ProfileStore.
type ScheduleStore struct {
	dir string
	now func() time.Time
	mu  sync.Mutex
}

// NewScheduleStore creates the backing directory if needed.
func NewScheduleStore(dataDir string) (*ScheduleStore, error) {
	dir := filepath.Join(dataDir, SchedulesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, luxerrors.IOFailure("create schedules directory", err)
	}
	return &ScheduleStore{dir: dir, now: time.Now}, nil
}

func (ss *ScheduleStore) recordPath(id string) string {
	return filepath.Join(ss.dir, id+".json")
}

// validScheduleID accepts only the decimal ids this store generates, so
// an id can never escape the record directory.
func validScheduleID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// List scans the backing directory, skipping unreadable or corrupt
// records silently.
func (ss *ScheduleStore) List() ([]lighting.Schedule, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.listUnsafe()
}

func (ss *ScheduleStore) listUnsafe() ([]lighting.Schedule, error) {
	entries, err := os.ReadDir(ss.dir)
	if err != nil {
		return nil, luxerrors.IOFailure("scan schedules directory", err)
	}

	schedules := make([]lighting.Schedule, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(ss.dir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable schedule record", "file", entry.Name(), "error", err)
			continue
		}
		var s lighting.Schedule
		if err := json.Unmarshal(data, &s); err != nil {
			slog.Debug("skipping corrupt schedule record", "file", entry.Name(), "error", err)
			continue
		}
		schedules = append(schedules, s)
	}
	return schedules, nil
}

// Create validates that every field is present, generates an id from the
// current epoch-millisecond timestamp, and writes the record. Two
// creates within the same millisecond can collide on id; that window is
// tolerated, not detected.
func (ss *ScheduleStore) Create(fields ScheduleFields) (lighting.Schedule, error) {
	if missing := fields.missingField(); missing != "" {
		return lighting.Schedule{}, luxerrors.MissingField(missing)
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	sched := lighting.Schedule{
		ID:            strconv.FormatInt(ss.now().UnixMilli(), 10),
		Title:         *fields.Title,
		Start:         *fields.Start,
		End:           *fields.End,
		ProfileName:   *fields.ProfileName,
		ProfileValues: *fields.ProfileValues,
		Enabled:       *fields.Enabled,
	}

	if err := ss.writeUnsafe(sched); err != nil {
		return lighting.Schedule{}, err
	}
	return sched, nil
}

// Update replaces the record wholesale; it is not a merge. Unknown ids
// fail with not found and leave the repository unchanged.
func (ss *ScheduleStore) Update(id string, fields ScheduleFields) (lighting.Schedule, error) {
	if !validScheduleID(id) {
		return lighting.Schedule{}, luxerrors.ScheduleNotFound(id)
	}
	if missing := fields.missingField(); missing != "" {
		return lighting.Schedule{}, luxerrors.MissingField(missing)
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	if _, err := os.Stat(ss.recordPath(id)); os.IsNotExist(err) {
		return lighting.Schedule{}, luxerrors.ScheduleNotFound(id)
	}

	sched := lighting.Schedule{
		ID:            id,
		Title:         *fields.Title,
		Start:         *fields.Start,
		End:           *fields.End,
		ProfileName:   *fields.ProfileName,
		ProfileValues: *fields.ProfileValues,
		Enabled:       *fields.Enabled,
	}

	if err := ss.writeUnsafe(sched); err != nil {
		return lighting.Schedule{}, err
	}
	return sched, nil
}

// Delete removes the record, failing with not found if it is absent.
func (ss *ScheduleStore) Delete(id string) error {
	if !validScheduleID(id) {
		return luxerrors.ScheduleNotFound(id)
	}

	ss.mu.Lock()
	defer ss.mu.Unlock()

	path := ss.recordPath(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return luxerrors.ScheduleNotFound(id)
	}
	if err := os.Remove(path); err != nil {
		return luxerrors.IOFailure("remove schedule record", err)
	}
	return nil
}

func (ss *ScheduleStore) writeUnsafe(sched lighting.Schedule) error {
	data, err := json.MarshalIndent(sched, "", "  ")
	if err != nil {
		return luxerrors.InternalError("marshal schedule", err)
	}
	if err := os.WriteFile(ss.recordPath(sched.ID), data, 0o644); err != nil {
		return luxerrors.IOFailure("write schedule record", err)
	}
	return nil
}
