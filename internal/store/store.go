// Package store persists master task records. The engine only ever
// sees the Load/Save contract; hosts choose SQLite for durability or
// the in-memory store for tests and ephemeral sessions.
package store

import (
	"context"

	"git.home.luguber.info/inful/dayplan/internal/task"
)

// Store is the task persistence contract consumed by the planner.
// Save replaces the full record set; serializing read-modify-write
// cycles is the caller's job (the planner holds one writer lock).
type Store interface {
	// Load returns all sanitized task records.
	Load(ctx context.Context) ([]*task.MasterTask, error)

	// Save replaces the stored record set.
	Save(ctx context.Context, tasks []*task.MasterTask) error

	// Close releases resources.
	Close() error
}
