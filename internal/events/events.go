// Package events keeps an audit trail of storage mutations per
// machine. Device state itself is never persisted; the log defaults to
// an in-memory database and only touches disk when a path is
// configured.
package events

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

// Event is one recorded storage mutation.
type Event struct {
	ID        string    `json:"id"`
	MachineID string    `json:"machine_id"`
	Op        string    `json:"op"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Log stores events in sqlite.
type Log struct {
	logger zerolog.Logger
	mu     sync.Mutex
	db     *sql.DB
}

// Open creates or opens the event database. An empty path keeps the
// log in memory.
func Open(logger zerolog.Logger, path string) (*Log, error) {
	dsn := path
	if dsn == "" {
		dsn = "file:ivd-events?mode=memory&cache=shared"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("event log pragma: %w", err)
		}
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS storage_events (
		id TEXT PRIMARY KEY,
		machine_id TEXT NOT NULL,
		op TEXT NOT NULL,
		detail TEXT,
		created_at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_machine
		ON storage_events(machine_id, created_at);`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("event log schema: %w", err)
	}

	return &Log{
		logger: logger.With().Str("component", "events").Logger(),
		db:     db,
	}, nil
}

// Append records a mutation. Failures are logged, not propagated; the
// mutation itself already happened.
func (l *Log) Append(machineID, op, detail string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.db.Exec(
		`INSERT INTO storage_events (id, machine_id, op, detail, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), machineID, op, detail, time.Now().UTC(),
	)
	if err != nil {
		l.logger.Warn().Err(err).Str("machine", machineID).Str("op", op).Msg("event append failed")
	}
}

// Recent returns the newest events for a machine, newest first.
func (l *Log) Recent(machineID string, limit int) ([]Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	rows, err := l.db.Query(
		`SELECT id, machine_id, op, detail, created_at
		 FROM storage_events WHERE machine_id = ?
		 ORDER BY created_at DESC, id LIMIT ?`, machineID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.MachineID, &e.Op, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (l *Log) Close() error { return l.db.Close() }
