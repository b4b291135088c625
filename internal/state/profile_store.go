package state

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
	"git.home.luguber.info/inful/luxd/internal/lighting"
)

// ProfilesDir is the profile record directory inside the data directory.
const ProfilesDir = "profiles"

// ProfileStore is a file-per-record store for named lighting presets.
// One repository-wide mutex covers every check-then-act sequence, so two
// concurrent creates of the same name cannot both succeed and a delete
// cannot race a list into reading a half-removed record.
type ProfileStore struct {
	dir string
	mu  sync.Mutex
}

// NewProfileStore creates the backing directory if needed.
func NewProfileStore(dataDir string) (*ProfileStore, error) {
	dir := filepath.Join(dataDir, ProfilesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, luxerrors.IOFailure("create profiles directory", err)
	}
	return &ProfileStore{dir: dir}, nil
}

// validProfileName restricts names to a charset that cannot escape the
// record directory. The name doubles as the filename.
func validProfileName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == ' ':
		default:
			return false
		}
	}
	return true
}

func (ps *ProfileStore) recordPath(name string) string {
	return filepath.Join(ps.dir, name+".json")
}

// List scans the backing directory and returns every parseable record.
// Unreadable or corrupt records are skipped silently, matching the
// store's load tolerance everywhere else.
func (ps *ProfileStore) List() ([]lighting.Profile, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	entries, err := os.ReadDir(ps.dir)
	if err != nil {
		return nil, luxerrors.IOFailure("scan profiles directory", err)
	}

	profiles := make([]lighting.Profile, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(ps.dir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable profile record", "file", entry.Name(), "error", err)
			continue
		}
		var p lighting.Profile
		if err := json.Unmarshal(data, &p); err != nil {
			slog.Debug("skipping corrupt profile record", "file", entry.Name(), "error", err)
			continue
		}
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Create writes a new record, failing with a conflict if the name is
// already taken. There is no update operation; replacing a profile is
// delete-then-create by the caller.
func (ps *ProfileStore) Create(name string, values lighting.Vector) error {
	if !validProfileName(name) {
		return luxerrors.ValidationFailed("name", "empty or contains unsupported characters")
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	path := ps.recordPath(name)
	if _, err := os.Stat(path); err == nil {
		return luxerrors.ProfileExists(name)
	}

	data, err := json.MarshalIndent(lighting.Profile{Name: name, Values: values}, "", "  ")
	if err != nil {
		return luxerrors.InternalError("marshal profile", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return luxerrors.IOFailure("write profile record", err)
	}
	return nil
}

// Get returns a single profile by name.
func (ps *ProfileStore) Get(name string) (lighting.Profile, error) {
	if !validProfileName(name) {
		return lighting.Profile{}, luxerrors.ValidationFailed("name", "empty or contains unsupported characters")
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	data, err := os.ReadFile(ps.recordPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return lighting.Profile{}, luxerrors.ProfileNotFound(name)
		}
		return lighting.Profile{}, luxerrors.IOFailure("read profile record", err)
	}
	var p lighting.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return lighting.Profile{}, luxerrors.ProfileNotFound(name)
	}
	return p, nil
}

// Delete removes the record, failing with not found if it is absent.
func (ps *ProfileStore) Delete(name string) error {
	if !validProfileName(name) {
		return luxerrors.ValidationFailed("name", "empty or contains unsupported characters")
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()

	path := ps.recordPath(name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return luxerrors.ProfileNotFound(name)
	}
	if err := os.Remove(path); err != nil {
		return luxerrors.IOFailure("remove profile record", err)
	}
	return nil
}
