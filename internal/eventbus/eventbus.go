// Package eventbus publishes task change events for host integrations
// (notification schedulers, sync bridges). The engine itself never
// depends on the bus; the planner service publishes after mutations
// have been persisted. Disabled by default.
package eventbus

import (
	"context"
	"time"
)

// EventType enumerates the published change kinds.
type EventType string

const (
	EventTaskAdded     EventType = "task.added"
	EventTaskCompleted EventType = "task.completed"
	EventTaskDeleted   EventType = "task.deleted"
	EventTaskDetached  EventType = "task.detached"
	EventTaskUpdated   EventType = "task.updated"
	EventRollover      EventType = "task.rollover"
)

// Event is one task change notification.
type Event struct {
	Type   EventType `json:"type"`
	TaskID string    `json:"taskId"`
	// Date is the occurrence date the change applies to, when the
	// change targets one occurrence of a series.
	Date string    `json:"date,omitempty"`
	At   time.Time `json:"at"`
}

// Publisher delivers task change events. Publish failures are host
// integration concerns; the planner logs and continues, it never
// fails a mutation because the bus is down.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NoopPublisher discards all events (default when events are not configured).
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
