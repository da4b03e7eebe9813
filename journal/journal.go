// Package journal keeps an append-only SQLite log of agent state transitions.
// The journal is audit data only; nothing reads it back into a running simulation.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"officesim/shared"
)

// Journal records transition events into a SQLite database
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal database at path
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func createSchema(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_id TEXT NOT NULL,
			from_state TEXT NOT NULL,
			to_state TEXT NOT NULL,
			energy REAL NOT NULL,
			x REAL NOT NULL,
			y REAL NOT NULL,
			z REAL NOT NULL,
			tick INTEGER NOT NULL,
			recorded_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_agent_id ON transitions(agent_id);`,
	}

	for _, query := range schemas {
		if _, err := db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Record appends one transition
func (j *Journal) Record(ctx context.Context, ev shared.TransitionEvent) error {
	query := `
		INSERT INTO transitions (agent_id, from_state, to_state, energy, x, y, z, tick, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := j.db.ExecContext(ctx, query,
		ev.AgentID, ev.From, ev.To, ev.Energy,
		ev.Position.X, ev.Position.Y, ev.Position.Z,
		ev.Tick, ev.At.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	return nil
}

// Recent returns up to limit transitions, newest first
func (j *Journal) Recent(ctx context.Context, limit int) ([]shared.TransitionEvent, error) {
	query := `SELECT agent_id, from_state, to_state, energy, x, y, z, tick, recorded_at FROM transitions ORDER BY id DESC LIMIT ?`
	return j.getMany(ctx, query, limit)
}

// ForAgent returns every transition of one agent, oldest first
func (j *Journal) ForAgent(ctx context.Context, agentID string) ([]shared.TransitionEvent, error) {
	query := `SELECT agent_id, from_state, to_state, energy, x, y, z, tick, recorded_at FROM transitions WHERE agent_id = ? ORDER BY id ASC`
	return j.getMany(ctx, query, agentID)
}

func (j *Journal) getMany(ctx context.Context, query string, args ...interface{}) ([]shared.TransitionEvent, error) {
	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []shared.TransitionEvent
	for rows.Next() {
		var ev shared.TransitionEvent
		var recordedAt int64
		err := rows.Scan(
			&ev.AgentID, &ev.From, &ev.To, &ev.Energy,
			&ev.Position.X, &ev.Position.Y, &ev.Position.Z,
			&ev.Tick, &recordedAt,
		)
		if err != nil {
			return nil, err
		}
		ev.At = time.Unix(0, recordedAt).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the underlying database
func (j *Journal) Close() error {
	return j.db.Close()
}
