package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"git.home.luguber.info/inful/dayplan/internal/foundation/errors"
	"git.home.luguber.info/inful/dayplan/internal/metrics"
	"git.home.luguber.info/inful/dayplan/internal/task"
)

// SQLiteStore implements Store using SQLite. Tasks are stored as JSON
// documents keyed by id; every Load runs the records through the
// sanitizer so the engine never sees a malformed task, whatever
// happened to the database underneath.
type SQLiteStore struct {
	db      *sql.DB
	mu      sync.RWMutex
	metrics metrics.Recorder
}

// SetMetrics injects a recorder for rejected-record counts.
func (s *SQLiteStore) SetMetrics(r metrics.Recorder) { s.metrics = r }

// NewSQLiteStore creates a new SQLite-backed task store.
// Use ":memory:" for an in-memory database, or a file path for
// persistent storage.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "open task database").Build()
	}
	// modernc sqlite is not safe for concurrent writers on one file.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, errors.WrapError(err, errors.CategoryStorage, "initialize task schema").Build()
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_updated_at ON tasks(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns all stored tasks, sanitized. Malformed rows are
// dropped and logged by the sanitizer, never failing the load.
func (s *SQLiteStore) Load(ctx context.Context) ([]*task.MasterTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM tasks ORDER BY rowid")
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "query tasks").Build()
	}
	defer rows.Close()

	var raws []map[string]any
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, errors.WrapError(err, errors.CategoryStorage, "scan task row").Build()
		}
		var raw map[string]any
		if err := json.Unmarshal(payload, &raw); err != nil {
			// Leave the row for the sanitizer to reject as nil.
			raw = nil
		}
		raws = append(raws, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.WrapError(err, errors.CategoryStorage, "iterate task rows").Build()
	}
	tasks, dropped := task.SanitizeAll(raws)
	if dropped > 0 && s.metrics != nil {
		for i := 0; i < dropped; i++ {
			s.metrics.IncRecordRejected()
		}
	}
	return tasks, nil
}

// Save replaces the stored record set in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, tasks []*task.MasterTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "begin save transaction").Build()
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "clear task table").Build()
	}

	now := time.Now().Unix()
	for _, t := range tasks {
		payload, err := json.Marshal(t)
		if err != nil {
			return errors.WrapError(err, errors.CategoryStorage, "marshal task").
				WithContext("task_id", t.ID).Build()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tasks (id, payload, updated_at) VALUES (?, ?, ?)",
			t.ID, payload, now,
		); err != nil {
			return errors.WrapError(err, errors.CategoryStorage, "insert task").
				WithContext("task_id", t.ID).Build()
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.WrapError(err, errors.CategoryStorage, "commit save transaction").Build()
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
