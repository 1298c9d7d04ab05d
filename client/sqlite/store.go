// Package sqlite provides the durable Local Store implementation backed by
// an embedded SQLite database, so snapshot and pending queue survive process
// restart.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"shoplist/client"
)

// Store implements client.Store on SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and applies the schema.
func NewStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection avoids SQLITE_BUSY with the modernc driver.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	for _, stmt := range AllTableSchemas() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)",
		SchemaVersion, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return nil
}

// GetSnapshot returns the persisted snapshot, or an empty one if none was
// ever saved.
func (s *Store) GetSnapshot() (client.Snapshot, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM snapshot WHERE id = 1").Scan(&data)
	if err == sql.ErrNoRows {
		return client.Snapshot{}, nil
	}
	if err != nil {
		return client.Snapshot{}, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap client.Snapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return client.Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snap, nil
}

// SetSnapshot replaces the persisted snapshot.
func (s *Store) SetSnapshot(snap client.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO snapshot (id, data, saved_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at
	`, string(data), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// GetQueue returns all pending actions in insertion order.
func (s *Store) GetQueue() ([]client.Action, error) {
	rows, err := s.db.Query(
		"SELECT action_id, kind, payload, created_at FROM pending_actions ORDER BY seq ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to read queue: %w", err)
	}
	defer rows.Close()

	var queue []client.Action
	for rows.Next() {
		var (
			a         client.Action
			payload   string
			createdAt int64
		)
		if err := rows.Scan(&a.ID, &a.Kind, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}
		a.Payload = json.RawMessage(payload)
		a.CreatedAt = time.Unix(createdAt, 0)
		queue = append(queue, a)
	}
	return queue, rows.Err()
}

// SetQueue replaces the whole queue, preserving the given order.
func (s *Store) SetQueue(queue []client.Action) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin queue update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM pending_actions"); err != nil {
		return fmt.Errorf("failed to clear queue: %w", err)
	}
	for _, a := range queue {
		_, err := tx.Exec(
			"INSERT INTO pending_actions (action_id, kind, payload, created_at) VALUES (?, ?, ?, ?)",
			a.ID, string(a.Kind), string(a.Payload), a.CreatedAt.Unix(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert action %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// AppendToQueue adds one action to the end of the queue.
func (s *Store) AppendToQueue(a client.Action) error {
	_, err := s.db.Exec(
		"INSERT INTO pending_actions (action_id, kind, payload, created_at) VALUES (?, ?, ?, ?)",
		a.ID, string(a.Kind), string(a.Payload), a.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to append action %s: %w", a.ID, err)
	}
	return nil
}
