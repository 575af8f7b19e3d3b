// Package manifest records render runs, the items they completed and the
// chunks they wrote in a SQLite database, so that interrupted editions can be
// resumed and archives traced back to their runs.
package manifest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phanxgames/edition"

	_ "modernc.org/sqlite"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// ErrUnknownRun is returned for run IDs that were never begun.
var ErrUnknownRun = errors.New("manifest: unknown run")

// Run is one recorded render run.
type Run struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
	Status     string
	Error      string
	Items      int
}

// Manifest is a SQLite-backed run log.
type Manifest struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the database at path. Use ":memory:" for a
// throwaway manifest.
func Open(path string) (*Manifest, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	// One connection keeps ":memory:" databases intact and serializes writes.
	db.SetMaxOpenConns(1)
	m := &Manifest{db: db, now: time.Now}
	if err := m.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return m, nil
}

// Close closes the database.
func (m *Manifest) Close() error { return m.db.Close() }

func (m *Manifest) migrate(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS items (
		run_id TEXT NOT NULL REFERENCES runs(id),
		seq INTEGER NOT NULL,
		set_name TEXT NOT NULL,
		local_index INTEGER NOT NULL,
		images TEXT NOT NULL,
		metadata TEXT NOT NULL,
		chunk TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);
	CREATE TABLE IF NOT EXISTS chunks (
		run_id TEXT NOT NULL REFERENCES runs(id),
		name TEXT NOT NULL,
		idx INTEGER NOT NULL,
		entries INTEGER NOT NULL,
		bytes INTEGER NOT NULL,
		PRIMARY KEY (run_id, name)
	);`
	if _, err := m.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate manifest: %w", err)
	}
	return nil
}

// BeginRun records a new running run and returns its ID.
func (m *Manifest) BeginRun(ctx context.Context, command string) (string, error) {
	id := uuid.NewString()
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, started_at, status) VALUES (?, ?, ?, ?)`,
		id, command, m.now().UTC().Format(time.RFC3339Nano), StatusRunning)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// RecordItem stores a completed item of run.
func (m *Manifest) RecordItem(ctx context.Context, runID string, it edition.Item) error {
	images, err := json.Marshal(it.Images)
	if err != nil {
		return err
	}
	_, err = m.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO items (run_id, seq, set_name, local_index, images, metadata, chunk)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, it.SequenceNumber, it.SetName, it.LocalIndex, string(images), it.Metadata, it.Chunk)
	if err != nil {
		return fmt.Errorf("record item %d: %w", it.SequenceNumber, err)
	}
	return nil
}

// RecordChunk stores a chunk written during run.
func (m *Manifest) RecordChunk(ctx context.Context, runID string, c edition.ChunkInfo) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO chunks (run_id, name, idx, entries, bytes) VALUES (?, ?, ?, ?, ?)`,
		runID, c.Name, c.Index, c.Entries, c.Bytes)
	if err != nil {
		return fmt.Errorf("record chunk %s: %w", c.Name, err)
	}
	return nil
}

// FinishRun marks run finished, or failed when runErr is non-nil.
func (m *Manifest) FinishRun(ctx context.Context, runID string, runErr error) error {
	status, msg := StatusFinished, ""
	if runErr != nil {
		status, msg = StatusFailed, runErr.Error()
	}
	res, err := m.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, error = ? WHERE id = ?`,
		m.now().UTC().Format(time.RFC3339Nano), status, msg, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrUnknownRun)
	}
	return nil
}

// Rendered returns every sequence number completed by any run, ascending.
func (m *Manifest) Rendered(ctx context.Context) ([]int, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT DISTINCT seq FROM items ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []int
	for rows.Next() {
		var seq int
		if err := rows.Scan(&seq); err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	return out, rows.Err()
}

// Runs returns up to limit runs, newest first.
func (m *Manifest) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT r.id, r.command, r.started_at, COALESCE(r.finished_at, ''), r.status, r.error,
		       (SELECT COUNT(*) FROM items i WHERE i.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Run
	for rows.Next() {
		var r Run
		var started, finished string
		if err := rows.Scan(&r.ID, &r.Command, &started, &finished, &r.Status, &r.Error, &r.Items); err != nil {
			return nil, err
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339Nano, finished)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Chunks returns the chunks of run in write order.
func (m *Manifest) Chunks(ctx context.Context, runID string) ([]edition.ChunkInfo, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT name, idx, entries, bytes FROM chunks WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []edition.ChunkInfo
	for rows.Next() {
		var c edition.ChunkInfo
		if err := rows.Scan(&c.Name, &c.Index, &c.Entries, &c.Bytes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
