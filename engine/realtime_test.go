package engine

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

func mustRaw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func TestRealtimeIgnoresOwnEcho(t *testing.T) {
	e, _ := newTestEngine(t)

	row := storage.NewColumnRow("p1", board.Column{ID: "c-echo", Title: "Echo"})
	e.applyChange(storage.Change{
		Table:  storage.TableColumns,
		Type:   storage.ChangeInsert,
		New:    mustRaw(t, row),
		Origin: "client-a", // this session's own id
	})

	assert.Empty(t, e.Columns())
}

func TestRealtimeColumnInsertIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)
	col, _ := e.AddColumn("Mine")
	e.Wait()

	// The feed echoes the insert from another device replaying history.
	row := storage.NewColumnRow("p1", col)
	ch := storage.Change{
		Table:  storage.TableColumns,
		Type:   storage.ChangeInsert,
		New:    mustRaw(t, row),
		Origin: "client-b",
	}
	e.applyChange(ch)
	e.applyChange(ch)

	assert.Len(t, e.Columns(), 1)
}

func TestRealtimeTaskInsertRequiresLocalColumn(t *testing.T) {
	e, _ := newTestEngine(t)
	col, _ := e.AddColumn("Here")
	e.Wait()

	ghost := storage.NewTaskRow("p1", board.Task{ID: "t-ghost", ColumnID: "elsewhere", Content: "ghost"})
	e.applyChange(storage.Change{
		Table: storage.TableTasks, Type: storage.ChangeInsert,
		New: mustRaw(t, ghost), Origin: "client-b",
	})
	assert.Empty(t, e.Tasks(), "tasks for unknown columns are not adopted")

	real := storage.NewTaskRow("p1", board.Task{ID: "t-real", ColumnID: col.ID, Content: "real"})
	e.applyChange(storage.Change{
		Table: storage.TableTasks, Type: storage.ChangeInsert,
		New: mustRaw(t, real), Origin: "client-b",
	})
	require.Len(t, e.Tasks(), 1)
	assert.Equal(t, "real", e.Tasks()[0].Content)
}

func TestRealtimeUpdateAbsentIsIgnored(t *testing.T) {
	e, _ := newTestEngine(t)

	row := storage.NewTaskRow("p1", board.Task{ID: "t-unknown", ColumnID: "c-unknown", Content: "x"})
	e.applyChange(storage.Change{
		Table: storage.TableTasks, Type: storage.ChangeUpdate,
		New: mustRaw(t, row), Origin: "client-b",
	})
	assert.Empty(t, e.Tasks())
}

func TestRealtimeUpdateReplacesFields(t *testing.T) {
	e, _ := newTestEngine(t)
	col, _ := e.AddColumn("Here")
	task, _ := e.AddTask(col.ID, "old text")
	e.Wait()

	updated := task
	updated.Content = "edited elsewhere"
	updated.Color = board.ColorLilac
	e.applyChange(storage.Change{
		Table: storage.TableTasks, Type: storage.ChangeUpdate,
		New: mustRaw(t, storage.NewTaskRow("p1", updated)), Origin: "client-b",
	})

	got := e.Tasks()
	require.Len(t, got, 1)
	assert.Equal(t, "edited elsewhere", got[0].Content)
	assert.Equal(t, board.ColorLilac, got[0].Color)
}

func TestRealtimeDeleteClosesEditor(t *testing.T) {
	e, _ := newTestEngine(t)
	col, _ := e.AddColumn("Here")
	task, _ := e.AddTask(col.ID, "open in editor")
	e.Wait()

	var closedTable, closedID string
	e.OnEntityClosed = func(table, id string) {
		closedTable, closedID = table, id
	}

	e.applyChange(storage.Change{
		Table: storage.TableTasks, Type: storage.ChangeDelete,
		Old: mustRaw(t, storage.NewTaskRow("p1", task)), Origin: "client-b",
	})

	assert.Empty(t, e.Tasks())
	assert.Equal(t, storage.TableTasks, closedTable)
	assert.Equal(t, task.ID, closedID)
}

func TestRealtimeColumnDeleteCascadesLocally(t *testing.T) {
	e, _ := newTestEngine(t)
	col, _ := e.AddColumn("Doomed")
	keep, _ := e.AddColumn("Keep")
	_, _ = e.AddTask(col.ID, "goes")
	kept, _ := e.AddTask(keep.ID, "stays")
	e.Wait()

	e.applyChange(storage.Change{
		Table: storage.TableColumns, Type: storage.ChangeDelete,
		Old: mustRaw(t, storage.NewColumnRow("p1", col)), Origin: "client-b",
	})

	require.Len(t, e.Columns(), 1)
	require.Len(t, e.Tasks(), 1)
	assert.Equal(t, kept.ID, e.Tasks()[0].ID)
}

func TestRealtimeEventInsertAndSort(t *testing.T) {
	e, _ := newTestEngine(t)
	later, err := e.AddEvent(board.AgendaEvent{
		Title:     "later",
		StartTime: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	e.Wait()

	earlier := board.AgendaEvent{
		ID:        "ev-earlier",
		ProfileID: "p1",
		Title:     "earlier",
		StartTime: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC),
		Priority:  board.PriorityHigh,
	}
	e.applyChange(storage.Change{
		Table: storage.TableEvents, Type: storage.ChangeInsert,
		New: mustRaw(t, storage.NewEventRow(earlier)), Origin: "client-b",
	})

	events := e.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "ev-earlier", events[0].ID)
	assert.Equal(t, later.ID, events[1].ID)
}

func TestStartWiresFeed(t *testing.T) {
	store := newFakeStore()
	feed := &fakeFeed{}
	e := New(Session{
		Profile:  board.Profile{ID: "p1"},
		Store:    store,
		Feed:     feed,
		ClientID: "client-a",
	})
	require.NoError(t, e.Start(context.Background()))
	require.NotNil(t, feed.fn, "subscription registered")

	row := storage.NewColumnRow("p1", board.Column{ID: "c-remote", Title: "Remote"})
	feed.fn(storage.Change{
		Table: storage.TableColumns, Type: storage.ChangeInsert,
		New: mustRaw(t, row), Origin: "client-b",
	})
	require.Len(t, e.Columns(), 1)
	e.Stop()
}
