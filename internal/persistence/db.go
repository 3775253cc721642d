// Package persistence provides SQLite-backed storage for completed
// simulation runs, so results can be kept and compared across sessions.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/societysim/internal/engine"
)

// DB wraps a SQLite connection for run storage.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path, creating
// parent directories as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}
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
		epochs INTEGER NOT NULL,
		population INTEGER NOT NULL,
		config_json TEXT NOT NULL,
		final_metrics_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS epoch_snapshots (
		run_id TEXT NOT NULL,
		epoch INTEGER NOT NULL,
		snapshot_json TEXT NOT NULL,
		PRIMARY KEY (run_id, epoch)
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		epoch INTEGER NOT NULL,
		round INTEGER NOT NULL,
		type TEXT NOT NULL,
		significance TEXT NOT NULL,
		message TEXT NOT NULL,
		agent_ids_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id, epoch);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// RunRecord summarizes one stored run.
type RunRecord struct {
	ID         string `db:"id" json:"id"`
	CreatedAt  string `db:"created_at" json:"created_at"`
	Seed       int64  `db:"seed" json:"seed"`
	Epochs     int    `db:"epochs" json:"epochs"`
	Population int    `db:"population" json:"population"`
}

// SaveResult stores a completed run and returns its generated id.
func (db *DB) SaveResult(res *engine.Result) (string, error) {
	runID := uuid.NewString()

	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	configJSON, err := json.Marshal(res.Config)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	metricsJSON, err := json.Marshal(res.FinalMetrics())
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}

	population := res.Config.PopulationSize
	if len(res.Epochs) > 0 {
		population = len(res.Epochs[0].Agents)
	}

	_, err = tx.Exec(`INSERT INTO runs
		(id, created_at, seed, epochs, population, config_json, final_metrics_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, time.Now().UTC().Format(time.RFC3339), res.Config.Seed,
		len(res.Epochs), population, string(configJSON), string(metricsJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Preparex(
		"INSERT INTO epoch_snapshots (run_id, epoch, snapshot_json) VALUES (?, ?, ?)")
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, ep := range res.Epochs {
		snapJSON, err := json.Marshal(ep)
		if err != nil {
			return "", fmt.Errorf("marshal epoch %d: %w", ep.Epoch, err)
		}
		if _, err := stmt.Exec(runID, ep.Epoch, string(snapJSON)); err != nil {
			return "", fmt.Errorf("insert epoch %d: %w", ep.Epoch, err)
		}
	}

	for _, e := range res.Events {
		idsJSON, _ := json.Marshal(e.AgentIDs)
		_, err := tx.Exec(`INSERT INTO events
			(run_id, epoch, round, type, significance, message, agent_ids_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, e.Epoch, e.Round, string(e.Type), string(e.Significance),
			e.Message, string(idsJSON),
		)
		if err != nil {
			return "", fmt.Errorf("insert event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	slog.Info("run saved", "run_id", runID, "epochs", len(res.Epochs), "events", len(res.Events))
	return runID, nil
}

// LoadResult rebuilds a stored run from its snapshots and events.
func (db *DB) LoadResult(runID string) (*engine.Result, error) {
	var configJSON string
	if err := db.conn.Get(&configJSON,
		"SELECT config_json FROM runs WHERE id = ?", runID); err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}

	res := &engine.Result{}
	if err := json.Unmarshal([]byte(configJSON), &res.Config); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	var snaps []string
	if err := db.conn.Select(&snaps,
		"SELECT snapshot_json FROM epoch_snapshots WHERE run_id = ? ORDER BY epoch", runID); err != nil {
		return nil, fmt.Errorf("load epochs: %w", err)
	}
	for _, s := range snaps {
		var ep engine.EpochSnapshot
		if err := json.Unmarshal([]byte(s), &ep); err != nil {
			return nil, fmt.Errorf("parse epoch: %w", err)
		}
		res.Epochs = append(res.Epochs, ep)
	}

	rows, err := db.conn.Queryx(
		"SELECT epoch, round, type, significance, message, agent_ids_json FROM events WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e       engine.Event
			typ     string
			sig     string
			idsJSON string
		)
		if err := rows.Scan(&e.Epoch, &e.Round, &typ, &sig, &e.Message, &idsJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Type = engine.EventType(typ)
		e.Significance = engine.Significance(sig)
		if err := json.Unmarshal([]byte(idsJSON), &e.AgentIDs); err != nil {
			return nil, fmt.Errorf("parse event agents: %w", err)
		}
		res.Events = append(res.Events, e)
	}
	return res, rows.Err()
}

// ListRuns returns stored run summaries, most recent first.
func (db *DB) ListRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := db.conn.Select(&runs,
		"SELECT id, created_at, seed, epochs, population FROM runs ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	return runs, err
}

// RecentEvents returns the last N events of a run in emission order.
func (db *DB) RecentEvents(runID string, limit int) ([]engine.Event, error) {
	rows, err := db.conn.Queryx(`SELECT epoch, round, type, significance, message, agent_ids_json
		FROM (SELECT * FROM events WHERE run_id = ? ORDER BY id DESC LIMIT ?)
		ORDER BY id`, runID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []engine.Event
	for rows.Next() {
		var (
			e       engine.Event
			typ     string
			sig     string
			idsJSON string
		)
		if err := rows.Scan(&e.Epoch, &e.Round, &typ, &sig, &e.Message, &idsJSON); err != nil {
			return nil, err
		}
		e.Type = engine.EventType(typ)
		e.Significance = engine.Significance(sig)
		if err := json.Unmarshal([]byte(idsJSON), &e.AgentIDs); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
