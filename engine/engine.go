// Package engine is the board controller: it owns the in-memory model for one
// profile session, applies every mutation optimistically, and reconciles with
// the persistence adapter asynchronously.
//
// All synchronous model mutations complete under one lock before the matching
// persistence call is dispatched, so reads never observe a torn state and
// local operations apply in strict issuance order. Persistence calls on the
// same entity are chained and run in issuance order (a delete and the insert
// that undoes it must not race); calls on distinct entities may complete out
// of order, and every call carries the full target state of its entity (last
// writer wins), so completions converge on the newest local edit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

// Validation errors, rejected before any state mutation or network call.
var (
	ErrEmptyTitle   = errors.New("title must not be empty")
	ErrNoStartTime  = errors.New("event start time is required")
	ErrNoSuchColumn = errors.New("no such column")
	ErrNoSuchTask   = errors.New("no such task")
	ErrNoSuchEvent  = errors.New("no such event")
	ErrEmptyDate    = errors.New("date must not be empty")
)

// Session carries everything a board session needs, passed in explicitly at
// construction so tests can substitute in-memory fakes.
type Session struct {
	Profile  board.Profile
	Store    storage.Store
	Feed     storage.Subscriber // nil when the remote service is unconfigured
	ClientID string             // this session's id, used to skip echoed changes
}

// Engine is the board controller for one active profile session. Widgets and
// modals never hold their own copies of the model; they read through the
// accessors and mutate through the operation methods.
type Engine struct {
	mu      sync.Mutex
	session Session

	columns []board.Column
	tasks   []board.Task
	events  []board.AgendaEvent
	notes   []board.DayNote

	undo    undoLog
	pending map[string]*time.Timer // debounced task saves, keyed by task id

	flight     sync.WaitGroup
	seqMu      sync.Mutex
	seq        map[string]chan struct{} // tail of each entity's in-flight chain
	cancelFeed func()

	debounceWait time.Duration

	// OnError receives asynchronous persistence failures, after the
	// optimistic state has already rendered. Never called synchronously from
	// an operation.
	OnError func(error)
	// OnEntityClosed fires when a realtime delete removes an entity that may
	// be open in an editor.
	OnEntityClosed func(table, id string)
}

// New constructs an engine for the session. Call Start (or Load) before use.
func New(session Session) *Engine {
	if session.ClientID == "" {
		session.ClientID = board.NewID()
	}
	return &Engine{
		session:      session,
		pending:      make(map[string]*time.Timer),
		seq:          make(map[string]chan struct{}),
		debounceWait: time.Second,
	}
}

func (e *Engine) profileID() string {
	return e.session.Profile.ID
}

// Load performs the initial fetch: board, agenda events and day notes.
func (e *Engine) Load(ctx context.Context) error {
	columns, tasks, err := e.session.Store.LoadBoard(ctx, e.profileID())
	if err != nil {
		return fmt.Errorf("load board: %w", err)
	}
	events, err := e.session.Store.ListEvents(ctx, e.profileID())
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	notes, err := e.session.Store.ListDayNotes(ctx, e.profileID())
	if err != nil {
		return fmt.Errorf("load day notes: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.columns = columns
	e.tasks = tasks
	e.events = events
	e.notes = notes
	board.SortColumns(e.columns)
	board.SortTasks(e.tasks)
	board.SortEvents(e.events)
	return nil
}

// Start loads the model and, when a feed is configured, subscribes to the
// profile's realtime changes.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Load(ctx); err != nil {
		return err
	}
	if e.session.Feed == nil {
		return nil
	}
	cancel, err := e.session.Feed.Subscribe(ctx, e.profileID(), e.applyChange)
	if err != nil {
		// Degrade silently to a snapshot-only view.
		log.Printf("engine: realtime subscribe failed, continuing without feed: %v", err)
		return nil
	}
	e.cancelFeed = cancel
	return nil
}

// Stop tears down the feed, flushes debounced saves and waits for in-flight
// persistence calls.
func (e *Engine) Stop() {
	if e.cancelFeed != nil {
		e.cancelFeed()
		e.cancelFeed = nil
	}
	e.Flush()
	e.Wait()
}

// --- model accessors (read-only copies) ---

// Columns returns the columns in render order.
func (e *Engine) Columns() []board.Column {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]board.Column, len(e.columns))
	copy(out, e.columns)
	board.SortColumns(out)
	return out
}

// Tasks returns the flat task list in render order.
func (e *Engine) Tasks() []board.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]board.Task, len(e.tasks))
	copy(out, e.tasks)
	return out
}

// TasksInColumn returns one column's filtered view.
func (e *Engine) TasksInColumn(columnID string) []board.Task {
	return board.TasksInColumn(e.Tasks(), columnID)
}

// Events returns agenda events in display order.
func (e *Engine) Events() []board.AgendaEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]board.AgendaEvent, len(e.events))
	copy(out, e.events)
	board.SortEvents(out)
	return out
}

// DayNotes returns all of the profile's day notes.
func (e *Engine) DayNotes() []board.DayNote {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]board.DayNote, len(e.notes))
	copy(out, e.notes)
	return out
}

// Settings returns the session profile's current widget settings.
func (e *Engine) Settings() board.ProfileSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Profile.Settings
}

// --- async persistence ---

func (e *Engine) notifyError(err error) {
	if e.OnError != nil {
		e.OnError(err)
	}
}

// Per-entity chain keys. Calls sharing a key run in issuance order; batch
// writes use the bare table name and only serialize against other batches
// (batches are idempotent whole-row overwrites).
func columnKey(id string) string { return storage.TableColumns + "/" + id }
func taskKey(id string) string   { return storage.TableTasks + "/" + id }
func eventKey(id string) string  { return storage.TableEvents + "/" + id }

// claimSlot appends a persistence call to the key's in-flight chain. The
// returned prev channel (nil when the chain was idle) closes when the
// previous call on the key settles; done releases this call's slot. The slot
// must be claimed synchronously at dispatch so chain order matches issuance
// order.
func (e *Engine) claimSlot(key string) (prev <-chan struct{}, done func()) {
	e.seqMu.Lock()
	prevCh := e.seq[key]
	ch := make(chan struct{})
	e.seq[key] = ch
	e.seqMu.Unlock()

	return prevCh, func() {
		close(ch)
		e.seqMu.Lock()
		if e.seq[key] == ch {
			delete(e.seq, key)
		}
		e.seqMu.Unlock()
	}
}

// persistCreate dispatches a creation write. On failure the optimistic insert
// is rolled back and the caller's rollback runs under the model lock.
func (e *Engine) persistCreate(what, key string, call func(context.Context) error, rollback func()) {
	prev, done := e.claimSlot(key)
	e.flight.Add(1)
	go func() {
		defer e.flight.Done()
		defer done()
		if prev != nil {
			<-prev
		}
		if err := call(context.Background()); err != nil {
			e.mu.Lock()
			rollback()
			e.mu.Unlock()
			log.Printf("engine: %s failed, rolled back: %v", what, err)
			e.notifyError(fmt.Errorf("%s: %w", what, err))
		}
	}()
}

// persistWrite dispatches an update/delete write. Failures are tolerated: the
// optimistic model keeps its state and the durable store lags until the next
// successful write on the entity reconciles it.
func (e *Engine) persistWrite(what, key string, call func(context.Context) error) {
	prev, done := e.claimSlot(key)
	e.flight.Add(1)
	go func() {
		defer e.flight.Done()
		defer done()
		if prev != nil {
			<-prev
		}
		if err := call(context.Background()); err != nil {
			log.Printf("engine: %s failed, remote state may lag: %v", what, err)
			e.notifyError(fmt.Errorf("%s: %w", what, err))
		}
	}()
}

// Wait blocks until all dispatched persistence calls have completed. Used by
// Stop and by tests.
func (e *Engine) Wait() {
	e.flight.Wait()
}

// --- lookup helpers, callers hold e.mu ---

func (e *Engine) columnIndex(id string) int {
	for i := range e.columns {
		if e.columns[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) taskIndex(id string) int {
	for i := range e.tasks {
		if e.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) eventIndex(id string) int {
	for i := range e.events {
		if e.events[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) removeTaskLocked(id string) {
	if i := e.taskIndex(id); i >= 0 {
		e.tasks = append(e.tasks[:i], e.tasks[i+1:]...)
	}
}

func (e *Engine) removeColumnLocked(id string) {
	if i := e.columnIndex(id); i >= 0 {
		e.columns = append(e.columns[:i], e.columns[i+1:]...)
	}
}

func (e *Engine) removeEventLocked(id string) {
	if i := e.eventIndex(id); i >= 0 {
		e.events = append(e.events[:i], e.events[i+1:]...)
	}
}
