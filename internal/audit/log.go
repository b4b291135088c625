// Package audit provides the append-only history logs, the burst-aware
// debounce logger, and the optional queryable archive.
package audit

import (
	"bufio"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
)

// LogsDir is the log directory inside the data directory.
const LogsDir = "logs"

// Log file names.
const (
	EventHistoryFile = "event_history.log"
	LEDHistoryFile   = "led_history.log"
)

// Status tags an audit entry.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// ValidStatus reports whether s is an allowed status value.
func ValidStatus(s string) bool {
	return s == string(StatusSuccess) || s == string(StatusError)
}

// Entry is one immutable audit row.
type Entry struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Status    Status `json:"status"`
}

// HistoryLog is an append-only log with a fixed three-column layout,
// one tab-separated row per entry. Appends are serialized through a
// mutex so concurrent writers cannot interleave rows.
type HistoryLog struct {
	path    string
	now     func() time.Time
	archive *Archive // optional mirror, may be nil

	mu sync.Mutex
}

// NewHistoryLog opens (creating if needed) the named log file inside
// dataDir/logs. The optional archive mirrors every append.
func NewHistoryLog(dataDir, name string, archive *Archive) (*HistoryLog, error) {
	dir := filepath.Join(dataDir, LogsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, luxerrors.IOFailure("create logs directory", err)
	}
	return &HistoryLog{
		path:    filepath.Join(dir, name),
		now:     time.Now,
		archive: archive,
	}, nil
}

// sanitizeField keeps the row layout intact when an action carries tabs
// or newlines.
func sanitizeField(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}

// Append adds one row. The entry is durable when Append returns.
func (l *HistoryLog) Append(action string, status Status) error {
	if action == "" {
		return luxerrors.MissingField("action")
	}
	if !ValidStatus(string(status)) {
		return luxerrors.ValidationFailed("status", "must be success or error")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.now().UTC().Format(time.RFC3339)
	row := ts + "\t" + sanitizeField(action) + "\t" + string(status) + "\n"

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return luxerrors.IOFailure("open history log", err)
	}
	defer f.Close()

	if _, err := f.WriteString(row); err != nil {
		return luxerrors.IOFailure("append history log", err)
	}

	if l.archive != nil {
		if err := l.archive.Append(Entry{Timestamp: ts, Action: sanitizeField(action), Status: status}); err != nil {
			slog.Warn("audit archive append failed", "error", err)
		}
	}
	return nil
}

// Read returns every parseable entry oldest-to-newest. Malformed rows
// are skipped.
func (l *HistoryLog) Read() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, luxerrors.IOFailure("open history log", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "\t", 3)
		if len(parts) != 3 || !ValidStatus(parts[2]) {
			continue
		}
		entries = append(entries, Entry{
			Timestamp: parts[0],
			Action:    parts[1],
			Status:    Status(parts[2]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, luxerrors.IOFailure("read history log", err)
	}
	return entries, nil
}
