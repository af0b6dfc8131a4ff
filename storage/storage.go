// Package storage defines the persistence contract the board engine writes
// through, and the change-notification payload the realtime layer consumes.
// Two adapters implement Store: the remote row-store client and the local
// JSON-snapshot fallback.
package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/pastelflow/pastelflow/board"
)

// ErrNotFound reports a row-level miss.
var ErrNotFound = errors.New("storage: not found")

// Table names shared by the row store and the realtime channel.
const (
	TableColumns = "columns"
	TableTasks   = "tasks"
	TableEvents  = "agenda_events"
)

// ChangeType tags a realtime notification.
type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// Change is one push notification: a row-level insert, update or delete on a
// shared table. New and Old carry the raw row; Origin is the client id whose
// write caused the change, so sessions can skip their own echoes.
type Change struct {
	Table  string          `json:"table"`
	Type   ChangeType      `json:"eventType"`
	New    json.RawMessage `json:"new,omitempty"`
	Old    json.RawMessage `json:"old,omitempty"`
	Origin string          `json:"origin,omitempty"`
}

// Store is the persistence surface: one call per entity mutation, each
// carrying the full target state (idempotent overwrite, not a delta).
// Implementations must honor last-writer-wins semantics for repeated calls on
// the same id.
type Store interface {
	// LoadBoard returns all columns and tasks for a profile. A profile with
	// no stored board gets a default starter board from the local adapter
	// and an empty board from the remote one.
	LoadBoard(ctx context.Context, profileID string) ([]board.Column, []board.Task, error)

	InsertColumn(ctx context.Context, profileID string, c board.Column) error
	UpdateColumn(ctx context.Context, profileID string, c board.Column) error
	// UpsertColumns commits a reorder batch: every column's position in one
	// write.
	UpsertColumns(ctx context.Context, profileID string, cols []board.Column) error
	// DeleteColumn removes a column and cascades to its tasks.
	DeleteColumn(ctx context.Context, profileID, id string) error

	InsertTask(ctx context.Context, profileID string, t board.Task) error
	UpdateTask(ctx context.Context, profileID string, t board.Task) error
	UpsertTasks(ctx context.Context, profileID string, tasks []board.Task) error
	DeleteTask(ctx context.Context, profileID, id string) error

	ListEvents(ctx context.Context, profileID string) ([]board.AgendaEvent, error)
	InsertEvent(ctx context.Context, ev board.AgendaEvent) error
	UpdateEvent(ctx context.Context, ev board.AgendaEvent) error
	DeleteEvent(ctx context.Context, profileID, id string) error

	// UpsertDayNote inserts or replaces the note for (profile, date).
	UpsertDayNote(ctx context.Context, n board.DayNote) error
	ListDayNotes(ctx context.Context, profileID string) ([]board.DayNote, error)

	// SaveSettings persists a profile's merged widget settings.
	SaveSettings(ctx context.Context, profileID string, s board.ProfileSettings) error
}

// Subscriber registers for push notifications scoped to one profile. The
// returned cancel func tears the subscription down; after a transport error
// the feed simply stops (reconnection is the transport's concern, not the
// engine's).
type Subscriber interface {
	Subscribe(ctx context.Context, profileID string, fn func(Change)) (cancel func(), err error)
}
