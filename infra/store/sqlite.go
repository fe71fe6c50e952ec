// Package store persists simulation outcomes in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	coremetrics "github.com/kilianp07/evcorridor/core/metrics"
)

// ErrNotFound is returned when a simulation has no stored row.
var ErrNotFound = errors.New("store: simulation not found")

const schema = `
CREATE TABLE IF NOT EXISTS simulations (
    name TEXT PRIMARY KEY,
    seed INTEGER,
    ticks INTEGER,
    elapsed_s REAL,
    injected INTEGER,
    not_injected INTEGER,
    reached INTEGER,
    depleted INTEGER,
    incomplete INTEGER,
    error TEXT,
    duration_ms INTEGER,
    recorded_at INTEGER
);
CREATE TABLE IF NOT EXISTS state_means (
    name TEXT,
    state TEXT,
    mean_s REAL,
    PRIMARY KEY(name, state)
);
CREATE TABLE IF NOT EXISTS progress (
    name TEXT,
    tick INTEGER,
    elapsed_s REAL,
    active INTEGER,
    waiting INTEGER,
    charging INTEGER,
    chargers_in_use INTEGER,
    PRIMARY KEY(name, tick)
);
CREATE TABLE IF NOT EXISTS batches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    units INTEGER,
    failed INTEGER,
    workers INTEGER,
    duration_ms INTEGER,
    recorded_at INTEGER
);`

// SQLiteStore is a metrics sink keeping every event in a SQLite database.
// Re-running a simulation with the same name replaces its rows.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates the database and ensures schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("store: empty sqlite path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Workers write concurrently; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// RecordSimulation upserts the simulation row and its state means.
func (s *SQLiteStore) RecordSimulation(ev coremetrics.SimulationEvent) (err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.Exec(`INSERT INTO simulations
        (name, seed, ticks, elapsed_s, injected, not_injected, reached, depleted, incomplete, error, duration_ms, recorded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            seed = excluded.seed,
            ticks = excluded.ticks,
            elapsed_s = excluded.elapsed_s,
            injected = excluded.injected,
            not_injected = excluded.not_injected,
            reached = excluded.reached,
            depleted = excluded.depleted,
            incomplete = excluded.incomplete,
            error = excluded.error,
            duration_ms = excluded.duration_ms,
            recorded_at = excluded.recorded_at`,
		ev.Name, ev.Seed, ev.Ticks, ev.ElapsedS, ev.Injected, ev.NotInjected, ev.Reached, ev.Depleted,
		boolInt(ev.Incomplete), ev.Err, ev.Duration.Milliseconds(), unixMilli(ev.Time)); err != nil {
		return err
	}
	if _, err = tx.Exec(`DELETE FROM state_means WHERE name = ?`, ev.Name); err != nil {
		return err
	}
	for state, v := range ev.MeanStateTimes {
		if _, err = tx.Exec(`INSERT INTO state_means (name, state, mean_s) VALUES (?, ?, ?)`, ev.Name, state, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordProgress stores a progress sample.
func (s *SQLiteStore) RecordProgress(ev coremetrics.ProgressEvent) error {
	_, err := s.db.Exec(`INSERT INTO progress (name, tick, elapsed_s, active, waiting, charging, chargers_in_use)
        VALUES (?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(name, tick) DO UPDATE SET
            elapsed_s = excluded.elapsed_s,
            active = excluded.active,
            waiting = excluded.waiting,
            charging = excluded.charging,
            chargers_in_use = excluded.chargers_in_use`,
		ev.Name, ev.Tick, ev.ElapsedS, ev.Active, ev.Waiting, ev.Charging, ev.ChargersInUse)
	return err
}

// RecordBatch appends a batch summary.
func (s *SQLiteStore) RecordBatch(ev coremetrics.BatchEvent) error {
	_, err := s.db.Exec(`INSERT INTO batches (units, failed, workers, duration_ms, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		ev.Units, ev.Failed, ev.Workers, ev.Duration.Milliseconds(), unixMilli(ev.Time))
	return err
}

// Simulation returns the stored event for name.
func (s *SQLiteStore) Simulation(name string) (coremetrics.SimulationEvent, error) {
	row := s.db.QueryRow(`SELECT name, seed, ticks, elapsed_s, injected, not_injected, reached, depleted,
        incomplete, error, duration_ms, recorded_at FROM simulations WHERE name = ?`, name)
	ev, err := scanSimulation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ev, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return ev, err
	}
	ev.MeanStateTimes, err = s.stateMeans(name)
	return ev, err
}

// Simulations lists every stored simulation ordered by name. State means are
// not loaded.
func (s *SQLiteStore) Simulations() ([]coremetrics.SimulationEvent, error) {
	rows, err := s.db.Query(`SELECT name, seed, ticks, elapsed_s, injected, not_injected, reached, depleted,
        incomplete, error, duration_ms, recorded_at FROM simulations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coremetrics.SimulationEvent
	for rows.Next() {
		ev, err := scanSimulation(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Progress returns the samples of name ordered by tick.
func (s *SQLiteStore) Progress(name string) ([]coremetrics.ProgressEvent, error) {
	rows, err := s.db.Query(`SELECT name, tick, elapsed_s, active, waiting, charging, chargers_in_use
        FROM progress WHERE name = ? ORDER BY tick`, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coremetrics.ProgressEvent
	for rows.Next() {
		var ev coremetrics.ProgressEvent
		if err := rows.Scan(&ev.Name, &ev.Tick, &ev.ElapsedS, &ev.Active, &ev.Waiting, &ev.Charging, &ev.ChargersInUse); err != nil {
			return nil, err
		}
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Batches returns every stored batch summary, oldest first.
func (s *SQLiteStore) Batches() ([]coremetrics.BatchEvent, error) {
	rows, err := s.db.Query(`SELECT units, failed, workers, duration_ms, recorded_at FROM batches ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []coremetrics.BatchEvent
	for rows.Next() {
		var ev coremetrics.BatchEvent
		var ms, at int64
		if err := rows.Scan(&ev.Units, &ev.Failed, &ev.Workers, &ms, &at); err != nil {
			return nil, err
		}
		ev.Duration = time.Duration(ms) * time.Millisecond
		ev.Time = time.UnixMilli(at).UTC()
		res = append(res, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *SQLiteStore) stateMeans(name string) (map[string]float64, error) {
	rows, err := s.db.Query(`SELECT state, mean_s FROM state_means WHERE name = ?`, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make(map[string]float64)
	for rows.Next() {
		var state string
		var v float64
		if err := rows.Scan(&state, &v); err != nil {
			return nil, err
		}
		out[state] = v
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSimulation(r scanner) (coremetrics.SimulationEvent, error) {
	var ev coremetrics.SimulationEvent
	var incomplete int
	var ms, at int64
	err := r.Scan(&ev.Name, &ev.Seed, &ev.Ticks, &ev.ElapsedS, &ev.Injected, &ev.NotInjected,
		&ev.Reached, &ev.Depleted, &incomplete, &ev.Err, &ms, &at)
	if err != nil {
		return ev, err
	}
	ev.Incomplete = incomplete != 0
	ev.Duration = time.Duration(ms) * time.Millisecond
	ev.Time = time.UnixMilli(at).UTC()
	return ev, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}
