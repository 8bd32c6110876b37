package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/agora/internal/config"
	"github.com/talgya/agora/internal/stats"
)

// Recorder receives run history as the simulation progresses. Recording
// failures never invalidate the engine's in-memory state.
type Recorder interface {
	StartRun(cfg config.EngineConfig) error
	RecordSnapshot(s stats.WealthSnapshot) error
	FinishRun(result stats.SimulationResult) error
	Close() error
}

// DB is a SQLite-backed Recorder storing run metadata, per-step wealth
// snapshots, and the final result.
type DB struct {
	conn  *sqlx.DB
	runID string
}

// Open opens or creates the run history database at path.
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
		started_at INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		entity_count INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		result_json TEXT
	);

	CREATE TABLE IF NOT EXISTS snapshots (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		average REAL NOT NULL,
		gini REAL NOT NULL,
		trades INTEGER NOT NULL,
		volume REAL NOT NULL,
		PRIMARY KEY (run_id, step)
	);

	CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// StartRun registers a new run and makes it current for snapshot writes.
func (db *DB) StartRun(cfg config.EngineConfig) error {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	db.runID = uuid.NewString()
	_, err = db.conn.Exec(
		"INSERT INTO runs (id, started_at, seed, entity_count, config_json) VALUES (?, ?, ?, ?, ?)",
		db.runID, time.Now().Unix(), cfg.Seed, cfg.EntityCount, string(cfgJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	slog.Info("run recording started", "run_id", db.runID, "seed", cfg.Seed)
	return nil
}

// RecordSnapshot appends one step's distribution summary to the current run.
func (db *DB) RecordSnapshot(s stats.WealthSnapshot) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO snapshots (run_id, step, average, gini, trades, volume) VALUES (?, ?, ?, ?, ?, ?)",
		db.runID, s.Step, s.Average, s.Gini, s.Trades, s.Volume,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// FinishRun stores the final result against the current run.
func (db *DB) FinishRun(result stats.SimulationResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	_, err = db.conn.Exec("UPDATE runs SET result_json = ? WHERE id = ?", string(resultJSON), db.runID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	slog.Info("run recording finished", "run_id", db.runID)
	return nil
}

// Snapshots returns the recorded step history for a run, oldest first.
func (db *DB) Snapshots(runID string) ([]stats.WealthSnapshot, error) {
	var rows []stats.WealthSnapshot
	err := db.conn.Select(&rows,
		"SELECT step, average, gini, trades, volume FROM snapshots WHERE run_id = ? ORDER BY step",
		runID,
	)
	return rows, err
}

// RunID returns the identifier of the current run, empty before StartRun.
func (db *DB) RunID() string {
	return db.runID
}
