// Package persistence provides SQLite-backed run storage: lifecycle records
// and periodic agent snapshots, keyed by a per-run UUID.
package persistence

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/ferune/wildmere/internal/engine"
)

// Store wraps a SQLite connection for one simulation run.
type Store struct {
	conn  *sqlx.DB
	RunID string
}

// Open opens or creates a SQLite database at path and registers a new run.
func Open(path string, seed int64) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	st := &Store{conn: conn, RunID: uuid.NewString()}
	if err := st.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := st.registerRun(seed); err != nil {
		conn.Close()
		return nil, fmt.Errorf("register run: %w", err)
	}

	return st, nil
}

// Close closes the database connection.
func (st *Store) Close() error {
	return st.conn.Close()
}

func (st *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		last_tick INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		agent_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		species TEXT NOT NULL,
		detail TEXT
	);

	CREATE TABLE IF NOT EXISTS agent_snapshots (
		run_id TEXT NOT NULL,
		tick INTEGER NOT NULL,
		agent_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		species TEXT NOT NULL,
		x INTEGER NOT NULL,
		y INTEGER NOT NULL,
		health REAL NOT NULL,
		goal TEXT NOT NULL,
		PRIMARY KEY (run_id, tick, agent_id)
	);

	CREATE INDEX IF NOT EXISTS idx_records_run_tick ON records(run_id, tick);
	CREATE INDEX IF NOT EXISTS idx_snapshots_run_tick ON agent_snapshots(run_id, tick);
	`
	_, err := st.conn.Exec(schema)
	return err
}

func (st *Store) registerRun(seed int64) error {
	_, err := st.conn.Exec(
		"INSERT INTO runs (id, seed, started_at) VALUES (?, ?, ?)",
		st.RunID, seed, time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// SaveRecords appends lifecycle records for this run.
func (st *Store) SaveRecords(records []engine.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := st.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT INTO records
		(run_id, tick, kind, agent_id, name, species, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(st.RunID, r.Tick, r.Kind, r.AgentID, r.Name, r.Species, r.Detail); err != nil {
			return fmt.Errorf("insert record tick %d agent %d: %w", r.Tick, r.AgentID, err)
		}
	}

	return tx.Commit()
}

// SaveAgents writes a snapshot of all living agents at the given tick.
func (st *Store) SaveAgents(views []engine.AgentView, tick uint64) error {
	tx, err := st.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO agent_snapshots
		(run_id, tick, agent_id, name, species, x, y, health, goal)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, v := range views {
		if _, err := stmt.Exec(st.RunID, tick, v.ID, v.Name, v.Species, v.X, v.Y, v.Health, v.Goal); err != nil {
			return fmt.Errorf("insert snapshot agent %d: %w", v.ID, err)
		}
	}

	if _, err := tx.Exec("UPDATE runs SET last_tick = ? WHERE id = ?", tick, st.RunID); err != nil {
		return err
	}

	return tx.Commit()
}

// SaveCheckpoint persists the current run state: a full agent snapshot plus
// any records not yet written.
func (st *Store) SaveCheckpoint(sim *engine.Sim, tick uint64, newRecords []engine.Record) error {
	views := sim.SnapshotAgents()
	slog.Info("saving checkpoint", "run", st.RunID, "tick", tick, "agents", len(views), "records", len(newRecords))

	if err := st.SaveAgents(views, tick); err != nil {
		return fmt.Errorf("save agents: %w", err)
	}
	if err := st.SaveRecords(newRecords); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	return nil
}

// RecentRecords returns the latest N lifecycle records for this run.
func (st *Store) RecentRecords(limit int) ([]engine.Record, error) {
	var records []engine.Record
	err := st.conn.Select(&records,
		`SELECT tick, kind, agent_id, name, species, COALESCE(detail, '') AS detail
		 FROM records WHERE run_id = ? ORDER BY id DESC LIMIT ?`,
		st.RunID, limit,
	)
	return records, err
}

// LastTick returns the last checkpointed tick for this run.
func (st *Store) LastTick() (uint64, error) {
	var tick uint64
	err := st.conn.Get(&tick, "SELECT last_tick FROM runs WHERE id = ?", st.RunID)
	return tick, err
}
