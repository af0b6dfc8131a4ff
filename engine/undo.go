package engine

import (
	"context"

	"github.com/pastelflow/pastelflow/board"
)

// ActionKind tags an undo record. The log covers task and agenda-event
// mutations only; column structural changes are deliberately not undoable.
type ActionKind string

const (
	ActionTaskCreate  ActionKind = "TASK_CREATE"
	ActionTaskDelete  ActionKind = "TASK_DELETE"
	ActionTaskUpdate  ActionKind = "TASK_UPDATE"
	ActionEventCreate ActionKind = "EVENT_CREATE"
	ActionEventDelete ActionKind = "EVENT_DELETE"
	ActionEventUpdate ActionKind = "EVENT_UPDATE"
)

// Action is one inverse-operation record: the full entity for creates and
// deletes, a (previous, current) pair for updates. Records are plain data,
// decoupled from any UI state setter; the engine is the single dispatcher
// that applies them.
type Action struct {
	Kind      ActionKind
	Task      *board.Task
	PrevTask  *board.Task
	Event     *board.AgendaEvent
	PrevEvent *board.AgendaEvent
}

// undoLog is a LIFO stack of actions. Process-local, never persisted across
// sessions, and unbounded.
type undoLog struct {
	actions []Action
}

func (l *undoLog) push(a Action) {
	l.actions = append(l.actions, a)
}

func (l *undoLog) pop() (Action, bool) {
	if len(l.actions) == 0 {
		return Action{}, false
	}
	a := l.actions[len(l.actions)-1]
	l.actions = l.actions[:len(l.actions)-1]
	return a, true
}

// dropTaskCreate retires the newest create record for a task whose optimistic
// insert was rolled back, so undo can never act on the dead id.
func (l *undoLog) dropTaskCreate(id string) {
	for i := len(l.actions) - 1; i >= 0; i-- {
		a := l.actions[i]
		if a.Kind == ActionTaskCreate && a.Task != nil && a.Task.ID == id {
			l.actions = append(l.actions[:i], l.actions[i+1:]...)
			return
		}
	}
}

func (l *undoLog) dropEventCreate(id string) {
	for i := len(l.actions) - 1; i >= 0; i-- {
		a := l.actions[i]
		if a.Kind == ActionEventCreate && a.Event != nil && a.Event.ID == id {
			l.actions = append(l.actions[:i], l.actions[i+1:]...)
			return
		}
	}
}

func (l *undoLog) depth() int {
	return len(l.actions)
}

// UndoDepth reports how many actions can currently be undone.
func (e *Engine) UndoDepth() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.undo.depth()
}

// Undo pops the most recent action, applies its reversal to the model
// synchronously, and issues the persistence call that makes the reversal
// durable. There is no redo: undoing is single-direction. Returns false when
// the log is empty. The front end routes ctrl/cmd+Z here while a board is
// mounted.
func (e *Engine) Undo() bool {
	e.mu.Lock()
	a, ok := e.undo.pop()
	if !ok {
		e.mu.Unlock()
		return false
	}

	switch a.Kind {
	case ActionTaskCreate:
		id := a.Task.ID
		e.removeTaskLocked(id)
		e.cancelTaskSaveLocked(id)
		e.mu.Unlock()
		e.persistWrite("undo task create", taskKey(id), func(ctx context.Context) error {
			return e.session.Store.DeleteTask(ctx, e.profileID(), id)
		})

	case ActionTaskDelete:
		restored := *a.Task
		e.tasks = append(e.tasks, restored)
		board.SortTasks(e.tasks)
		e.mu.Unlock()
		e.persistWrite("undo task delete", taskKey(restored.ID), func(ctx context.Context) error {
			return e.session.Store.InsertTask(ctx, e.profileID(), restored)
		})

	case ActionTaskUpdate:
		restored := *a.PrevTask
		if i := e.taskIndex(restored.ID); i >= 0 {
			e.tasks[i] = restored
		}
		e.cancelTaskSaveLocked(restored.ID)
		e.mu.Unlock()
		e.persistWrite("undo task update", taskKey(restored.ID), func(ctx context.Context) error {
			return e.session.Store.UpdateTask(ctx, e.profileID(), restored)
		})

	case ActionEventCreate:
		id := a.Event.ID
		e.removeEventLocked(id)
		e.mu.Unlock()
		e.persistWrite("undo event create", eventKey(id), func(ctx context.Context) error {
			return e.session.Store.DeleteEvent(ctx, e.profileID(), id)
		})

	case ActionEventDelete:
		restored := *a.Event
		e.events = append(e.events, restored)
		board.SortEvents(e.events)
		e.mu.Unlock()
		e.persistWrite("undo event delete", eventKey(restored.ID), func(ctx context.Context) error {
			return e.session.Store.InsertEvent(ctx, restored)
		})

	case ActionEventUpdate:
		restored := *a.PrevEvent
		if i := e.eventIndex(restored.ID); i >= 0 {
			e.events[i] = restored
		}
		board.SortEvents(e.events)
		e.mu.Unlock()
		e.persistWrite("undo event update", eventKey(restored.ID), func(ctx context.Context) error {
			return e.session.Store.UpdateEvent(ctx, restored)
		})

	default:
		e.mu.Unlock()
	}
	return true
}
