// Package persistence provides SQLite-based recording of simulation runs:
// weekly samples, the event history, and threshold crossings, keyed by run ID.
// It stores finished results for later analysis, not resumable live state.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/demesne/internal/sim"
)

// DB wraps a SQLite connection for run recording.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		weeks INTEGER NOT NULL,
		scenario_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS samples (
		run_id TEXT NOT NULL,
		week INTEGER NOT NULL,
		population REAL NOT NULL,
		capacity REAL NOT NULL,
		active_event TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, week)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		name TEXT NOT NULL,
		start_week INTEGER NOT NULL,
		end_week INTEGER NOT NULL,
		birth_impact REAL NOT NULL,
		death_impact REAL NOT NULL,
		k_impact REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS crossings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		week INTEGER NOT NULL,
		label TEXT NOT NULL,
		population REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_crossings_run ON crossings(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Sample is one week of recorded simulation state.
type Sample struct {
	Week        int     `db:"week"`
	Population  float64 `db:"population"`
	Capacity    float64 `db:"capacity"`
	ActiveEvent string  `db:"active_event"`
}

// Crossing is one recorded threshold crossing.
type Crossing struct {
	Week       int     `db:"week"`
	Label      string  `db:"label"`
	Population float64 `db:"population"`
}

// CreateRun registers a new run and returns its ID. The scenario is stored as
// JSON alongside the seed so a recorded run can be reproduced exactly.
func (db *DB) CreateRun(seed int64, weeks int, scenario any) (string, error) {
	scenarioJSON, err := json.Marshal(scenario)
	if err != nil {
		return "", fmt.Errorf("marshal scenario: %w", err)
	}

	id := uuid.NewString()
	_, err = db.conn.Exec(
		`INSERT INTO runs (id, created_at, seed, weeks, scenario_json) VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), seed, weeks, string(scenarioJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveSamples writes weekly samples for a run in one transaction.
func (db *DB) SaveSamples(runID string, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(
		`INSERT INTO samples (run_id, week, population, capacity, active_event) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range samples {
		if _, err := stmt.Exec(runID, s.Week, s.Population, s.Capacity, s.ActiveEvent); err != nil {
			return fmt.Errorf("insert sample week %d: %w", s.Week, err)
		}
	}

	return tx.Commit()
}

// SaveEventHistory writes the run's event history.
func (db *DB) SaveEventHistory(runID string, records []sim.EventRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range records {
		_, err := tx.Exec(
			`INSERT INTO events (run_id, name, start_week, end_week, birth_impact, death_impact, k_impact)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, r.Name, r.StartWeek, r.EndWeek, r.Impacts.Birth, r.Impacts.Death, r.Impacts.K,
		)
		if err != nil {
			return fmt.Errorf("insert event %s: %w", r.Name, err)
		}
	}

	return tx.Commit()
}

// SaveCrossings writes the run's threshold crossings.
func (db *DB) SaveCrossings(runID string, crossings []Crossing) error {
	if len(crossings) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, c := range crossings {
		_, err := tx.Exec(
			`INSERT INTO crossings (run_id, week, label, population) VALUES (?, ?, ?, ?)`,
			runID, c.Week, c.Label, c.Population,
		)
		if err != nil {
			return fmt.Errorf("insert crossing %s: %w", c.Label, err)
		}
	}

	return tx.Commit()
}

// LoadSamples returns a run's weekly samples ordered by week.
func (db *DB) LoadSamples(runID string) ([]Sample, error) {
	var samples []Sample
	err := db.conn.Select(&samples,
		`SELECT week, population, capacity, active_event FROM samples WHERE run_id = ? ORDER BY week`, runID)
	if err != nil {
		return nil, fmt.Errorf("load samples: %w", err)
	}
	return samples, nil
}

// LoadEventHistory returns a run's event history in trigger order.
func (db *DB) LoadEventHistory(runID string) ([]sim.EventRecord, error) {
	rows, err := db.conn.Queryx(
		`SELECT name, start_week, end_week, birth_impact, death_impact, k_impact
		 FROM events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	var records []sim.EventRecord
	for rows.Next() {
		var r sim.EventRecord
		if err := rows.Scan(&r.Name, &r.StartWeek, &r.EndWeek,
			&r.Impacts.Birth, &r.Impacts.Death, &r.Impacts.K); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// LoadCrossings returns a run's threshold crossings ordered by week.
func (db *DB) LoadCrossings(runID string) ([]Crossing, error) {
	var crossings []Crossing
	err := db.conn.Select(&crossings,
		`SELECT week, label, population FROM crossings WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("load crossings: %w", err)
	}
	return crossings, nil
}

// SetMeta stores a key/value pair.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.conn.Exec(
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// GetMeta retrieves a value by key.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	if err := db.conn.Get(&value, `SELECT value FROM meta WHERE key = ?`, key); err != nil {
		return "", err
	}
	return value, nil
}
