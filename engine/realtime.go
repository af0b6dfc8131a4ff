package engine

import (
	"encoding/json"
	"log"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

// applyChange folds an externally-sourced row change into the model. Inserts
// are idempotent by id (guarding against the feed echoing a write this
// session already applied optimistically), updates on absent entities are
// ignored, deletes close any open editor via OnEntityClosed.
func (e *Engine) applyChange(ch storage.Change) {
	if ch.Origin != "" && ch.Origin == e.session.ClientID {
		return
	}

	switch ch.Table {
	case storage.TableColumns:
		e.applyColumnChange(ch)
	case storage.TableTasks:
		e.applyTaskChange(ch)
	case storage.TableEvents:
		e.applyEventChange(ch)
	default:
		log.Printf("engine: ignoring change on unknown table %q", ch.Table)
	}
}

func (e *Engine) applyColumnChange(ch storage.Change) {
	switch ch.Type {
	case storage.ChangeInsert, storage.ChangeUpdate:
		var row storage.ColumnRow
		if err := json.Unmarshal(ch.New, &row); err != nil {
			log.Printf("engine: bad column row in change: %v", err)
			return
		}
		col := row.Column()

		e.mu.Lock()
		if i := e.columnIndex(col.ID); i >= 0 {
			if ch.Type == storage.ChangeUpdate {
				e.columns[i] = col
			}
		} else if ch.Type == storage.ChangeInsert {
			e.columns = append(e.columns, col)
		}
		// An update for a column we never loaded is ignored.
		board.SortColumns(e.columns)
		e.mu.Unlock()

	case storage.ChangeDelete:
		var row storage.ColumnRow
		if err := json.Unmarshal(ch.Old, &row); err != nil {
			log.Printf("engine: bad column row in change: %v", err)
			return
		}

		e.mu.Lock()
		e.removeColumnLocked(row.ID)
		// Mirror the store's cascade.
		kept := e.tasks[:0]
		for _, t := range e.tasks {
			if t.ColumnID != row.ID {
				kept = append(kept, t)
			}
		}
		e.tasks = kept
		e.mu.Unlock()

		if e.OnEntityClosed != nil {
			e.OnEntityClosed(storage.TableColumns, row.ID)
		}
	}
}

func (e *Engine) applyTaskChange(ch storage.Change) {
	switch ch.Type {
	case storage.ChangeInsert, storage.ChangeUpdate:
		var row storage.TaskRow
		if err := json.Unmarshal(ch.New, &row); err != nil {
			log.Printf("engine: bad task row in change: %v", err)
			return
		}
		task := row.Task()

		e.mu.Lock()
		if i := e.taskIndex(task.ID); i >= 0 {
			if ch.Type == storage.ChangeUpdate {
				e.tasks[i] = task
			}
		} else if e.columnIndex(task.ColumnID) >= 0 {
			// Only adopt tasks whose column exists locally; anything else
			// belongs to a lane this view never loaded.
			e.tasks = append(e.tasks, task)
			board.SortTasks(e.tasks)
		}
		e.mu.Unlock()

	case storage.ChangeDelete:
		var row storage.TaskRow
		if err := json.Unmarshal(ch.Old, &row); err != nil {
			log.Printf("engine: bad task row in change: %v", err)
			return
		}

		e.mu.Lock()
		e.removeTaskLocked(row.ID)
		e.cancelTaskSaveLocked(row.ID)
		e.mu.Unlock()

		if e.OnEntityClosed != nil {
			e.OnEntityClosed(storage.TableTasks, row.ID)
		}
	}
}

func (e *Engine) applyEventChange(ch storage.Change) {
	switch ch.Type {
	case storage.ChangeInsert, storage.ChangeUpdate:
		var row storage.EventRow
		if err := json.Unmarshal(ch.New, &row); err != nil {
			log.Printf("engine: bad event row in change: %v", err)
			return
		}
		ev := row.Event()

		e.mu.Lock()
		if i := e.eventIndex(ev.ID); i >= 0 {
			if ch.Type == storage.ChangeUpdate {
				e.events[i] = ev
			}
		} else if ch.Type == storage.ChangeInsert {
			e.events = append(e.events, ev)
		}
		board.SortEvents(e.events)
		e.mu.Unlock()

	case storage.ChangeDelete:
		var row storage.EventRow
		if err := json.Unmarshal(ch.Old, &row); err != nil {
			log.Printf("engine: bad event row in change: %v", err)
			return
		}

		e.mu.Lock()
		e.removeEventLocked(row.ID)
		e.mu.Unlock()

		if e.OnEntityClosed != nil {
			e.OnEntityClosed(storage.TableEvents, row.ID)
		}
	}
}
