package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

var errFakeNetwork = errors.New("fake network failure")

// fakeStore is an in-memory storage.Store with injectable failures and call
// recording, standing in for the remote service in engine tests.
type fakeStore struct {
	mu      sync.Mutex
	columns map[string]board.Column
	tasks   map[string]board.Task
	events  map[string]board.AgendaEvent
	notes   map[string]board.DayNote // keyed by date

	failInsertTask  bool
	failInsertEvent bool
	failUpdateTask  bool
	deleteDelay     time.Duration // simulates a slow network on deletes

	updateTaskCalls     int
	upsertTaskBatches   [][]board.Task
	upsertColumnBatches [][]board.Column
	deletedTaskIDs      []string
	savedSettings       []board.ProfileSettings
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		columns: make(map[string]board.Column),
		tasks:   make(map[string]board.Task),
		events:  make(map[string]board.AgendaEvent),
		notes:   make(map[string]board.DayNote),
	}
}

func (f *fakeStore) LoadBoard(ctx context.Context, profileID string) ([]board.Column, []board.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var cols []board.Column
	for _, c := range f.columns {
		cols = append(cols, c)
	}
	var tasks []board.Task
	for _, t := range f.tasks {
		tasks = append(tasks, t)
	}
	board.SortColumns(cols)
	board.SortTasks(tasks)
	return cols, tasks, nil
}

func (f *fakeStore) InsertColumn(ctx context.Context, profileID string, c board.Column) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.columns[c.ID] = c
	return nil
}

func (f *fakeStore) UpdateColumn(ctx context.Context, profileID string, c board.Column) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.columns[c.ID] = c
	return nil
}

func (f *fakeStore) UpsertColumns(ctx context.Context, profileID string, cols []board.Column) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]board.Column, len(cols))
	copy(batch, cols)
	f.upsertColumnBatches = append(f.upsertColumnBatches, batch)
	for _, c := range cols {
		f.columns[c.ID] = c
	}
	return nil
}

func (f *fakeStore) DeleteColumn(ctx context.Context, profileID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.columns, id)
	for tid, t := range f.tasks {
		if t.ColumnID == id {
			delete(f.tasks, tid)
		}
	}
	return nil
}

func (f *fakeStore) InsertTask(ctx context.Context, profileID string, t board.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertTask {
		return errFakeNetwork
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, profileID string, t board.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateTaskCalls++
	if f.failUpdateTask {
		return errFakeNetwork
	}
	f.tasks[t.ID] = t
	return nil
}

func (f *fakeStore) UpsertTasks(ctx context.Context, profileID string, tasks []board.Task) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	batch := make([]board.Task, len(tasks))
	copy(batch, tasks)
	f.upsertTaskBatches = append(f.upsertTaskBatches, batch)
	for _, t := range tasks {
		f.tasks[t.ID] = t
	}
	return nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, profileID, id string) error {
	f.stallDelete()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedTaskIDs = append(f.deletedTaskIDs, id)
	delete(f.tasks, id)
	return nil
}

func (f *fakeStore) stallDelete() {
	f.mu.Lock()
	d := f.deleteDelay
	f.mu.Unlock()
	if d > 0 {
		time.Sleep(d)
	}
}

func (f *fakeStore) setDeleteDelay(d time.Duration) {
	f.mu.Lock()
	f.deleteDelay = d
	f.mu.Unlock()
}

func (f *fakeStore) ListEvents(ctx context.Context, profileID string) ([]board.AgendaEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var events []board.AgendaEvent
	for _, ev := range f.events {
		events = append(events, ev)
	}
	board.SortEvents(events)
	return events, nil
}

func (f *fakeStore) InsertEvent(ctx context.Context, ev board.AgendaEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failInsertEvent {
		return errFakeNetwork
	}
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeStore) UpdateEvent(ctx context.Context, ev board.AgendaEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[ev.ID] = ev
	return nil
}

func (f *fakeStore) DeleteEvent(ctx context.Context, profileID, id string) error {
	f.stallDelete()
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, id)
	return nil
}

func (f *fakeStore) UpsertDayNote(ctx context.Context, n board.DayNote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.notes[n.Date]; ok {
		existing.Content = n.Content
		f.notes[n.Date] = existing
		return nil
	}
	f.notes[n.Date] = n
	return nil
}

func (f *fakeStore) ListDayNotes(ctx context.Context, profileID string) ([]board.DayNote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var notes []board.DayNote
	for _, n := range f.notes {
		notes = append(notes, n)
	}
	return notes, nil
}

func (f *fakeStore) SaveSettings(ctx context.Context, profileID string, s board.ProfileSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedSettings = append(f.savedSettings, s)
	return nil
}

func (f *fakeStore) taskCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

var _ storage.Store = (*fakeStore)(nil)

// fakeFeed hands applyChange callbacks to tests.
type fakeFeed struct {
	fn func(storage.Change)
}

func (f *fakeFeed) Subscribe(ctx context.Context, profileID string, fn func(storage.Change)) (func(), error) {
	f.fn = fn
	return func() {}, nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	e := New(Session{
		Profile:  board.Profile{ID: "p1", Name: "Test"},
		Store:    store,
		ClientID: "client-a",
	})
	e.debounceWait = 5 * time.Millisecond
	if err := e.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return e, store
}
