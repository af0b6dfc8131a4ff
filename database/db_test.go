package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewStore(db)
	require.NoError(t, store.CreateProfile(context.Background(), board.Profile{ID: "p1", Name: "Ada", PIN: "1234"}))
	return store
}

func TestProfileRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p, err := store.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", p.Name)
	assert.Equal(t, "1234", p.PIN)

	_, err = store.GetProfile(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.CreateProfile(ctx, board.Profile{ID: "p2", Name: "Lin"}))
	profiles, err := store.ListProfiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Ada", profiles[0].Name)
}

func TestSaveSettingsPersistsBlob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	set := board.ProfileSettings{
		Agenda:    &board.AgendaSettings{Placement: board.WidgetPlacement{X: 10, Y: 20}, Visible: true},
		Shortcuts: []board.Shortcut{{ID: "s1", Label: "docs", URL: "https://docs.example.com"}},
	}
	require.NoError(t, store.SaveSettings(ctx, "p1", set))

	p, err := store.GetProfile(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, set, p.Settings)

	assert.ErrorIs(t, store.SaveSettings(ctx, "ghost", set), storage.ErrNotFound)
}

func TestColumnCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	col := storage.NewColumnRow("p1", board.Column{ID: "c1", Title: "Backlog", Color: board.ColorSky, Position: 0})
	require.NoError(t, store.InsertColumn(ctx, col))

	got, err := store.GetColumn(ctx, "p1", "c1")
	require.NoError(t, err)
	assert.Equal(t, col, got)

	col.Title = "Icebox"
	col.Position = 2
	require.NoError(t, store.UpdateColumn(ctx, col))
	got, err = store.GetColumn(ctx, "p1", "c1")
	require.NoError(t, err)
	assert.Equal(t, "Icebox", got.Title)
	assert.Equal(t, 2, got.Position)

	missing := col
	missing.ID = "ghost"
	assert.ErrorIs(t, store.UpdateColumn(ctx, missing), storage.ErrNotFound)
}

func TestUpsertColumnsCommitsReorderBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertColumn(ctx, storage.NewColumnRow("p1", board.Column{ID: "c1", Title: "A", Position: 0})))
	require.NoError(t, store.InsertColumn(ctx, storage.NewColumnRow("p1", board.Column{ID: "c2", Title: "B", Position: 1})))

	// One batch carries the whole renumbering plus a brand new column.
	require.NoError(t, store.UpsertColumns(ctx, []storage.ColumnRow{
		{ID: "c1", ProfileID: "p1", Title: "A", Position: 2},
		{ID: "c2", ProfileID: "p1", Title: "B", Position: 0},
		{ID: "c3", ProfileID: "p1", Title: "C", Position: 1},
	}))

	rows, err := store.ListColumns(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"c2", "c3", "c1"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})
}

func TestInsertTaskRequiresColumn(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	task := storage.NewTaskRow("p1", board.Task{ID: "t1", ColumnID: "nowhere", Content: "lost"})
	assert.ErrorIs(t, store.InsertTask(ctx, task), storage.ErrNotFound)

	require.NoError(t, store.InsertColumn(ctx, storage.NewColumnRow("p1", board.Column{ID: "c1", Title: "Here"})))
	task.ColumnID = "c1"
	require.NoError(t, store.InsertTask(ctx, task))

	got, err := store.GetTask(ctx, "p1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "c1", got.ColumnID)
}

func TestTaskUpdateMovesColumns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertColumn(ctx, storage.NewColumnRow("p1", board.Column{ID: "c1", Title: "Left"})))
	require.NoError(t, store.InsertColumn(ctx, storage.NewColumnRow("p1", board.Column{ID: "c2", Title: "Right", Position: 1})))

	rich := board.Task{
		ID: "t1", ColumnID: "c1", Content: "move me",
		Description: "<p>with baggage</p>",
		Attachments: []board.Attachment{{ID: "a1", Name: "file", URL: "https://example.com/f"}},
	}
	require.NoError(t, store.InsertTask(ctx, storage.NewTaskRow("p1", rich)))

	rich.ColumnID = "c2"
	rich.Position = 5
	require.NoError(t, store.UpdateTask(ctx, storage.NewTaskRow("p1", rich)))

	got, err := store.GetTask(ctx, "p1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "c2", got.ColumnID)
	// The packed blob round-trips the rich fields through the content column.
	assert.Equal(t, rich, got.Task())
}

func TestUpsertTasksBatch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertColumn(ctx, storage.NewColumnRow("p1", board.Column{ID: "c1", Title: "Only"})))
	require.NoError(t, store.InsertTask(ctx, storage.NewTaskRow("p1", board.Task{ID: "t1", ColumnID: "c1", Content: "one", Position: 0})))

	require.NoError(t, store.UpsertTasks(ctx, []storage.TaskRow{
		storage.NewTaskRow("p1", board.Task{ID: "t1", ColumnID: "c1", Content: "one", Position: 1}),
		storage.NewTaskRow("p1", board.Task{ID: "t2", ColumnID: "c1", Content: "two", Position: 0}),
	}))

	rows, err := store.ListTasks(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "t2", rows[0].ID)
	assert.Equal(t, 1, rows[1].Position)
}

func TestDeleteColumnCascadesTasks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertColumn(ctx, storage.NewColumnRow("p1", board.Column{ID: "c1", Title: "Doomed"})))
	require.NoError(t, store.InsertColumn(ctx, storage.NewColumnRow("p1", board.Column{ID: "c2", Title: "Keep", Position: 1})))
	require.NoError(t, store.InsertTask(ctx, storage.NewTaskRow("p1", board.Task{ID: "t1", ColumnID: "c1", Content: "goes"})))
	require.NoError(t, store.InsertTask(ctx, storage.NewTaskRow("p1", board.Task{ID: "t2", ColumnID: "c2", Content: "stays"})))

	require.NoError(t, store.DeleteColumn(ctx, "p1", "c1"))

	cols, err := store.ListColumns(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, cols, 1)

	tasks, err := store.ListTasks(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t2", tasks[0].ID)
}

func TestEventCRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	row := storage.EventRow{
		ID: "e1", ProfileID: "p1", Title: "Dentist",
		StartTime: "2025-06-01T09:00:00Z", Category: "sky", Priority: "high",
	}
	require.NoError(t, store.InsertEvent(ctx, row))

	got, err := store.GetEvent(ctx, "p1", "e1")
	require.NoError(t, err)
	assert.Equal(t, "Dentist", got.Title)

	row.IsCompleted = true
	row.Priority = "low"
	require.NoError(t, store.UpdateEvent(ctx, row))
	got, err = store.GetEvent(ctx, "p1", "e1")
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
	assert.Equal(t, board.PriorityLow, got.Event().Priority)

	require.NoError(t, store.DeleteEvent(ctx, "p1", "e1"))
	_, err = store.GetEvent(ctx, "p1", "e1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	row.ID = "ghost"
	assert.ErrorIs(t, store.UpdateEvent(ctx, row), storage.ErrNotFound)
}

func TestListEventsOrderedByStart(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.InsertEvent(ctx, storage.EventRow{
		ID: "e1", ProfileID: "p1", Title: "later", StartTime: "2025-06-01T14:00:00Z", Priority: "low",
	}))
	require.NoError(t, store.InsertEvent(ctx, storage.EventRow{
		ID: "e2", ProfileID: "p1", Title: "earlier", StartTime: "2025-06-01T09:00:00Z", Priority: "low",
	}))

	rows, err := store.ListEvents(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "e2", rows[0].ID)
}

func TestUpsertDayNoteOnConflictKeepsOneRowPerDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.UpsertDayNote(ctx, board.DayNote{ID: "n1", ProfileID: "p1", Date: "2025-06-01", Content: "first"}))
	require.NoError(t, store.UpsertDayNote(ctx, board.DayNote{ID: "n2", ProfileID: "p1", Date: "2025-06-01", Content: "second"}))
	require.NoError(t, store.UpsertDayNote(ctx, board.DayNote{ID: "n3", ProfileID: "p1", Date: "2025-06-02", Content: "other"}))

	notes, err := store.ListDayNotes(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "second", notes[0].Content)
	// The original row keeps its id; only the content was replaced.
	assert.Equal(t, "n1", notes[0].ID)
	assert.Equal(t, "2025-06-02", notes[1].Date)
}
