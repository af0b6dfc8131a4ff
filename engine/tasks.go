package engine

import (
	"context"
	"strings"
	"time"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

// AddTask creates a new note in a column. The task's id is proposed locally
// so the UI never waits on a round trip; a failed insert rolls the task back
// out of the model and retires its undo entry.
func (e *Engine) AddTask(columnID, content string) (board.Task, error) {
	if strings.TrimSpace(content) == "" {
		return board.Task{}, ErrEmptyTitle
	}

	e.mu.Lock()
	if e.columnIndex(columnID) < 0 {
		e.mu.Unlock()
		return board.Task{}, ErrNoSuchColumn
	}
	task := board.Task{
		ID:       board.NewID(),
		ColumnID: columnID,
		Content:  content,
		Position: len(e.tasks),
	}
	e.tasks = append(e.tasks, task)
	e.undo.push(Action{Kind: ActionTaskCreate, Task: &task})
	e.mu.Unlock()

	e.persistCreate("create task", taskKey(task.ID), func(ctx context.Context) error {
		return e.session.Store.InsertTask(ctx, e.profileID(), task)
	}, func() {
		e.removeTaskLocked(task.ID)
		e.undo.dropTaskCreate(task.ID)
	})
	return task, nil
}

// TaskEdit is the debounced field group: rapid keystrokes on these fields
// coalesce into one persistence call per quiet period.
type TaskEdit struct {
	Content     string
	Description string
	Attachments []board.Attachment
	IsChecklist bool
}

// EditTask applies a content/description/attachment edit to the model
// immediately and schedules the persistence call behind the debounce window.
func (e *Engine) EditTask(id string, edit TaskEdit) error {
	if strings.TrimSpace(edit.Content) == "" {
		return ErrEmptyTitle
	}

	e.mu.Lock()
	i := e.taskIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return ErrNoSuchTask
	}
	prev := e.tasks[i]
	e.tasks[i].Content = edit.Content
	e.tasks[i].Description = edit.Description
	e.tasks[i].Attachments = edit.Attachments
	e.tasks[i].IsChecklist = edit.IsChecklist
	curr := e.tasks[i]
	e.undo.push(Action{Kind: ActionTaskUpdate, Task: &curr, PrevTask: &prev})
	e.scheduleTaskSaveLocked(id)
	e.mu.Unlock()
	return nil
}

// SetTaskColor sets a task's pastel tag and persists immediately (color is
// not part of the debounced field group on its own, but the write still
// carries the whole task state).
func (e *Engine) SetTaskColor(id string, color board.ColorTag) error {
	e.mu.Lock()
	i := e.taskIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return ErrNoSuchTask
	}
	prev := e.tasks[i]
	e.tasks[i].Color = color
	curr := e.tasks[i]
	e.undo.push(Action{Kind: ActionTaskUpdate, Task: &curr, PrevTask: &prev})
	e.mu.Unlock()

	e.persistWrite("recolor task", taskKey(id), func(ctx context.Context) error {
		return e.session.Store.UpdateTask(ctx, e.profileID(), curr)
	})
	return nil
}

// DeleteTask removes a task. The full entity is captured for undo.
func (e *Engine) DeleteTask(id string) error {
	e.mu.Lock()
	i := e.taskIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return ErrNoSuchTask
	}
	deleted := e.tasks[i]
	e.removeTaskLocked(id)
	e.undo.push(Action{Kind: ActionTaskDelete, Task: &deleted})
	e.cancelTaskSaveLocked(id)
	e.mu.Unlock()

	e.persistWrite("delete task", taskKey(id), func(ctx context.Context) error {
		return e.session.Store.DeleteTask(ctx, e.profileID(), id)
	})
	return nil
}

// MoveTaskOverTask handles a drag frame where the dragged task hovers another
// task: adopt the target's column if it differs, then move adjacent to the
// target's index in the flat list. In-memory only; CommitTaskDrag persists.
func (e *Engine) MoveTaskOverTask(dragID, targetID string) error {
	if dragID == targetID {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	from := e.taskIndex(dragID)
	to := e.taskIndex(targetID)
	if from < 0 || to < 0 {
		return ErrNoSuchTask
	}

	if e.tasks[from].ColumnID != e.tasks[to].ColumnID {
		e.tasks[from].ColumnID = e.tasks[to].ColumnID
	}

	moved := e.tasks[from]
	e.tasks = append(e.tasks[:from], e.tasks[from+1:]...)
	e.tasks = append(e.tasks[:to], append([]board.Task{moved}, e.tasks[to:]...)...)
	return nil
}

// MoveTaskOverColumn handles a drag frame where the dragged task hovers a
// column directly (an empty lane or the gap below its cards): only the
// columnId changes, so the task lands at the end of that column's filtered
// view. In-memory only.
func (e *Engine) MoveTaskOverColumn(dragID, columnID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	i := e.taskIndex(dragID)
	if i < 0 {
		return ErrNoSuchTask
	}
	if e.columnIndex(columnID) < 0 {
		return ErrNoSuchColumn
	}
	e.tasks[i].ColumnID = columnID
	return nil
}

// CommitTaskDrag runs at drag end: renumber every task's position to its
// index in the flat list and persist the whole ordering as one upsert batch.
// Intermediate drag frames stay pure in-memory moves, so a completed gesture
// costs exactly one network batch.
func (e *Engine) CommitTaskDrag() {
	e.mu.Lock()
	for i := range e.tasks {
		e.tasks[i].Position = i
	}
	batch := make([]board.Task, len(e.tasks))
	copy(batch, e.tasks)
	e.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	e.persistWrite("commit task reorder", storage.TableTasks, func(ctx context.Context) error {
		return e.session.Store.UpsertTasks(ctx, e.profileID(), batch)
	})
}

// --- debounced task saves ---

// scheduleTaskSaveLocked restarts the task's single coalescing timer. Only
// the final pending timer fires a network call.
func (e *Engine) scheduleTaskSaveLocked(id string) {
	if t, ok := e.pending[id]; ok {
		t.Stop()
	}
	e.pending[id] = time.AfterFunc(e.debounceWait, func() {
		e.flushTaskSave(id)
	})
}

func (e *Engine) cancelTaskSaveLocked(id string) {
	if t, ok := e.pending[id]; ok {
		t.Stop()
		delete(e.pending, id)
	}
}

// flushTaskSave persists the task's current model state.
func (e *Engine) flushTaskSave(id string) {
	e.mu.Lock()
	delete(e.pending, id)
	i := e.taskIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return
	}
	task := e.tasks[i]
	e.mu.Unlock()

	e.persistWrite("save task edit", taskKey(id), func(ctx context.Context) error {
		return e.session.Store.UpdateTask(ctx, e.profileID(), task)
	})
}

// Flush fires all pending debounced saves immediately.
func (e *Engine) Flush() {
	e.mu.Lock()
	ids := make([]string, 0, len(e.pending))
	for id, t := range e.pending {
		t.Stop()
		ids = append(ids, id)
	}
	e.mu.Unlock()

	for _, id := range ids {
		e.flushTaskSave(id)
	}
}
