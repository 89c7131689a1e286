package trace

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/spike/internal/network"
	"github.com/nvandessel/spike/internal/session"
)

// ErrRunNotFound is returned when a run ID is not in the database.
var ErrRunNotFound = errors.New("run not found")

// DB is an open trace database.
type DB struct {
	db *sql.DB
}

// Open opens (creating if needed) the trace database at path.
func Open(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create trace directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Runs lists recordings, newest first.
func (d *DB) Runs(ctx context.Context) ([]Run, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT r.id, r.label, r.started_at,
			(SELECT COUNT(*) FROM samples s WHERE s.run_id = r.id),
			(SELECT COUNT(*) FROM events e WHERE e.run_id = r.id)
		FROM runs r
		ORDER BY r.started_at DESC, r.rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var started string
		if err := rows.Scan(&r.ID, &r.Label, &started, &r.Samples, &r.Events); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, started)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recently started run.
func (d *DB) LatestRun(ctx context.Context) (Run, error) {
	runs, err := d.Runs(ctx)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrRunNotFound
	}
	return runs[0], nil
}

// Samples returns a run's samples ordered by tick then neuron.
func (d *DB) Samples(ctx context.Context, runID string) ([]Sample, error) {
	var exists int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE id = ?`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT tick, neuron, v, w, firing FROM samples WHERE run_id = ? ORDER BY tick, neuron`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var s Sample
		var neuron, firing int
		var v, w sql.NullFloat64
		if err := rows.Scan(&s.Tick, &neuron, &v, &w, &firing); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.V, s.W = nanIfNull(v), nanIfNull(w)
		s.Neuron = network.NeuronID(neuron)
		s.Firing = firing != 0
		out = append(out, s)
	}
	return out, rows.Err()
}

// nanIfNull undoes SQLite's NaN-to-NULL conversion.
func nanIfNull(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

// Events returns a run's events ordered by tick.
func (d *DB) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT tick, kind, subject FROM events WHERE run_id = ? ORDER BY tick, rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.Tick, &e.Kind, &e.Subject); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SQLiteRecorder writes one run into a trace database.
type SQLiteRecorder struct {
	mu    sync.Mutex
	db    *DB
	runID string
	owned bool
}

// NewRun starts a new run in d and returns a recorder for it.
func (d *DB) NewRun(ctx context.Context, label string, config network.Config) (*SQLiteRecorder, error) {
	cfg, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	id := uuid.NewString()
	if _, err := d.db.ExecContext(ctx,
		`INSERT INTO runs (id, label, config, started_at) VALUES (?, ?, ?, ?)`,
		id, label, string(cfg), time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}
	return &SQLiteRecorder{db: d, runID: id}, nil
}

// OpenRecorder opens the database at path and starts a new run. Closing
// the recorder closes the database.
func OpenRecorder(ctx context.Context, path, label string, config network.Config) (*SQLiteRecorder, error) {
	d, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	rec, err := d.NewRun(ctx, label, config)
	if err != nil {
		d.Close()
		return nil, err
	}
	rec.owned = true
	return rec, nil
}

// RunID returns the identifier of the run being recorded.
func (r *SQLiteRecorder) RunID() string {
	return r.runID
}

func (r *SQLiteRecorder) RecordTick(ctx context.Context, snap session.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO samples (run_id, tick, neuron, v, w, firing) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range SamplesOf(snap) {
		firing := 0
		if s.Firing {
			firing = 1
		}
		if _, err := stmt.ExecContext(ctx, r.runID, s.Tick, int(s.Neuron), s.V, s.W, firing); err != nil {
			return fmt.Errorf("failed to insert sample: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordEvent(ctx context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.db.db.ExecContext(ctx,
		`INSERT INTO events (run_id, tick, kind, subject) VALUES (?, ?, ?, ?)`,
		r.runID, ev.Tick, ev.Kind, ev.Subject); err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// Close closes the database if the recorder opened it.
func (r *SQLiteRecorder) Close() error {
	if r.owned {
		return r.db.Close()
	}
	return nil
}
