// Package oplog is an append-only audit trail of every TaskList run a
// ResourcesManager operation produces: who ran, on what resource, with
// what correlation ID, and how it ended. It supplements the core's
// file-based dependency/ready state (which remains authoritative) with a
// queryable history for post-hoc debugging of compensation chains.
package oplog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"
)

// Outcome is how a logged TaskList run ended.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeError   Outcome = "error"
	OutcomeAborted Outcome = "aborted"
)

// Entry is one row of operation history.
type Entry struct {
	ID            string
	CorrelationID string
	Plugin        string
	ResourceType  string
	Name          string
	Operation     string
	Outcome       Outcome
	Message       string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Log is a SQLite-backed append-only store of Entry rows.
type Log struct {
	db *sql.DB
}

const schema = `CREATE TABLE IF NOT EXISTS oplog (
	id TEXT PRIMARY KEY,
	correlation_id TEXT NOT NULL,
	plugin TEXT NOT NULL,
	resource_type TEXT NOT NULL,
	name TEXT NOT NULL,
	operation TEXT NOT NULL,
	outcome TEXT NOT NULL,
	message TEXT NOT NULL DEFAULT '',
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL
)`

const index = `CREATE INDEX IF NOT EXISTS oplog_name_idx ON oplog (plugin, resource_type, name)`

// timeLayout is a fixed-width UTC timestamp, so that sorting the stored
// text sorts the times.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Open opens (creating if needed) the SQLite database at path and ensures
// its schema, mirroring the teacher's single-connection config store:
// one writer at a time is plenty for an audit log this small.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("oplog: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("oplog: apply schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, index); err != nil {
		db.Close()
		return nil, fmt.Errorf("oplog: apply index: %w", err)
	}

	return &Log{db: db}, nil
}

// Close releases the underlying database connection.
func (l *Log) Close() error { return l.db.Close() }

// Record appends one run. A nil-returning caller should still call Record
// for every terminal outcome, including aborted — this is the log that
// lets an operator reconstruct what a fire-and-forget compensating delete
// or stop actually did.
func (l *Log) Record(ctx context.Context, e Entry) error {
	if e.CorrelationID == "" {
		e.CorrelationID = uuid.NewString()
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO oplog (id, correlation_id, plugin, resource_type, name, operation, outcome, message, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), e.CorrelationID, e.Plugin, e.ResourceType, e.Name, e.Operation,
		string(e.Outcome), e.Message, e.StartedAt.UTC().Format(timeLayout), e.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("oplog: record entry: %w", err)
	}
	return nil
}

// History returns every recorded entry for (plugin, resourceType, name),
// most recent first.
func (l *Log) History(ctx context.Context, plugin, resourceType, name string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, correlation_id, plugin, resource_type, name, operation, outcome, message, started_at, finished_at
		FROM oplog
		WHERE plugin = ? AND resource_type = ? AND name = ?
		ORDER BY started_at DESC`,
		plugin, resourceType, name,
	)
	if err != nil {
		return nil, fmt.Errorf("oplog: query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var outcome, started, finished string
		if err := rows.Scan(&e.ID, &e.CorrelationID, &e.Plugin, &e.ResourceType, &e.Name, &e.Operation, &outcome, &e.Message, &started, &finished); err != nil {
			return nil, fmt.Errorf("oplog: scan history row: %w", err)
		}
		e.Outcome = Outcome(outcome)
		e.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		e.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
