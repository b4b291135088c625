package audit

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	luxerrors "git.home.luguber.info/inful/luxd/internal/errors"
)

// Archive is an optional sqlite mirror of appended audit entries,
// queryable by time range. The flat log files remain the source of
// truth; the archive only adds queries.
type Archive struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewArchive opens the archive database at dbPath, creating the parent
// directory and schema if needed. Use ":memory:" in tests.
func NewArchive(dbPath string) (*Archive, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, luxerrors.IOFailure("create archive directory", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, luxerrors.IOFailure("open audit archive", err)
	}

	a := &Archive{db: db}
	if err := a.initialize(); err != nil {
		_ = db.Close()
		return nil, luxerrors.IOFailure("initialize audit archive schema", err)
	}
	return a, nil
}

func (a *Archive) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		unix_ts INTEGER NOT NULL,
		action TEXT NOT NULL,
		status TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_unix_ts ON entries(unix_ts);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Append mirrors one entry into the archive.
func (a *Archive) Append(e Entry) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	unix := int64(0)
	if ts, err := time.Parse(time.RFC3339, e.Timestamp); err == nil {
		unix = ts.Unix()
	}

	_, err := a.db.Exec(
		"INSERT INTO entries (timestamp, unix_ts, action, status) VALUES (?, ?, ?, ?)",
		e.Timestamp, unix, e.Action, string(e.Status),
	)
	if err != nil {
		return luxerrors.IOFailure("insert archive entry", err)
	}
	return nil
}

// Range returns archived entries within [since, until], oldest first.
func (a *Archive) Range(ctx context.Context, since, until time.Time) ([]Entry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	rows, err := a.db.QueryContext(ctx,
		"SELECT timestamp, action, status FROM entries WHERE unix_ts >= ? AND unix_ts <= ? ORDER BY id",
		since.Unix(), until.Unix(),
	)
	if err != nil {
		return nil, luxerrors.IOFailure("query archive", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status string
		if err := rows.Scan(&e.Timestamp, &e.Action, &status); err != nil {
			return nil, luxerrors.IOFailure("scan archive row", err)
		}
		e.Status = Status(status)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (a *Archive) Close() error {
	return a.db.Close()
}
