package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/huskago/bashautom/internal/shell"
)

const schema = `
CREATE TABLE IF NOT EXISTS history (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session     TEXT NOT NULL,
    command     TEXT NOT NULL,
    exit_code   INTEGER NOT NULL,
    timed_out   INTEGER NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL DEFAULT 0,
    stdout      TEXT NOT NULL DEFAULT '',
    stderr      TEXT NOT NULL DEFAULT '',
    created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS history_session ON history(session, id);
`

// maxCapturedOutput bounds how much of each stream one history row keeps.
const maxCapturedOutput = 4096

// Store wraps a SQLite database recording executed commands.
type Store struct {
	db *sql.DB
}

// Entry is one recorded execution.
type Entry struct {
	ID       int64
	Session  string
	Command  string
	ExitCode int
	TimedOut bool
	Duration time.Duration
	Stdout   string
	Stderr   string
	Created  time.Time
}

// Open creates or opens the history database at
// $XDG_STATE_HOME/bashautom/history.db.
func Open() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		stateHome = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateHome, "bashautom")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return OpenAt(filepath.Join(dir, "history.db"))
}

// OpenAt opens the history database at an explicit path.
func OpenAt(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// WAL mode for safe concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record persists one completed execution.
func (s *Store) Record(session string, res *shell.CommandResult) error {
	timedOut := 0
	if res.TimedOut {
		timedOut = 1
	}
	_, err := s.db.Exec(`
		INSERT INTO history (session, command, exit_code, timed_out, duration_ms, stdout, stderr)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, session, res.Command, res.ExitCode, timedOut, res.Duration.Milliseconds(),
		clip(res.Stdout), clip(res.Stderr))
	return err
}

// Recent returns the most recent entries, newest first. An empty
// session matches all sessions.
func (s *Store) Recent(session string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, session, command, exit_code, timed_out, duration_ms, stdout, stderr, created_at
		FROM history`
	args := []any{}
	if session != "" {
		query += " WHERE session = ?"
		args = append(args, session)
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var timedOut int
		var durationMS int64
		var created string
		if err := rows.Scan(&e.ID, &e.Session, &e.Command, &e.ExitCode,
			&timedOut, &durationMS, &e.Stdout, &e.Stderr, &created); err != nil {
			return nil, err
		}
		e.TimedOut = timedOut != 0
		e.Duration = time.Duration(durationMS) * time.Millisecond
		e.Created, _ = time.Parse("2006-01-02 15:04:05", created)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func clip(s string) string {
	if len(s) > maxCapturedOutput {
		return s[:maxCapturedOutput]
	}
	return s
}
