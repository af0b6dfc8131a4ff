package engine

import (
	"context"
	"strings"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

// AddColumn creates a new list at the end of the board. Column structural
// changes are not undoable.
func (e *Engine) AddColumn(title string) (board.Column, error) {
	if strings.TrimSpace(title) == "" {
		return board.Column{}, ErrEmptyTitle
	}

	e.mu.Lock()
	col := board.Column{
		ID:       board.NewID(),
		Title:    title,
		Position: len(e.columns),
	}
	e.columns = append(e.columns, col)
	e.mu.Unlock()

	e.persistCreate("create column", columnKey(col.ID), func(ctx context.Context) error {
		return e.session.Store.InsertColumn(ctx, e.profileID(), col)
	}, func() {
		e.removeColumnLocked(col.ID)
	})
	return col, nil
}

// RenameColumn sets a column's title.
func (e *Engine) RenameColumn(id, title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}

	e.mu.Lock()
	i := e.columnIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return ErrNoSuchColumn
	}
	e.columns[i].Title = title
	col := e.columns[i]
	e.mu.Unlock()

	e.persistWrite("rename column", columnKey(id), func(ctx context.Context) error {
		return e.session.Store.UpdateColumn(ctx, e.profileID(), col)
	})
	return nil
}

// RecolorColumn sets a column's pastel tag.
func (e *Engine) RecolorColumn(id string, color board.ColorTag) error {
	e.mu.Lock()
	i := e.columnIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return ErrNoSuchColumn
	}
	e.columns[i].Color = color
	col := e.columns[i]
	e.mu.Unlock()

	e.persistWrite("recolor column", columnKey(id), func(ctx context.Context) error {
		return e.session.Store.UpdateColumn(ctx, e.profileID(), col)
	})
	return nil
}

// DeleteColumn removes a column and all of its tasks. The deletion is not
// undoable and the store cascades the same way.
func (e *Engine) DeleteColumn(id string) error {
	e.mu.Lock()
	if e.columnIndex(id) < 0 {
		e.mu.Unlock()
		return ErrNoSuchColumn
	}
	e.removeColumnLocked(id)
	kept := e.tasks[:0]
	for _, t := range e.tasks {
		if t.ColumnID != id {
			kept = append(kept, t)
		}
	}
	e.tasks = kept
	e.mu.Unlock()

	e.persistWrite("delete column", columnKey(id), func(ctx context.Context) error {
		return e.session.Store.DeleteColumn(ctx, e.profileID(), id)
	})
	return nil
}

// MoveColumn commits a column drag: the dragged column is removed from the
// ordered list, reinserted at the target's index, and every column is
// renumbered to a dense 0..N-1 sequence before the whole batch is upserted.
// Full renumbering on every move keeps positions from drifting under repeated
// partial updates.
func (e *Engine) MoveColumn(dragID, targetID string) error {
	if dragID == targetID {
		return nil
	}

	e.mu.Lock()
	board.SortColumns(e.columns)
	from := e.columnIndex(dragID)
	to := e.columnIndex(targetID)
	if from < 0 || to < 0 {
		e.mu.Unlock()
		return ErrNoSuchColumn
	}

	moved := e.columns[from]
	e.columns = append(e.columns[:from], e.columns[from+1:]...)
	e.columns = append(e.columns[:to], append([]board.Column{moved}, e.columns[to:]...)...)
	for i := range e.columns {
		e.columns[i].Position = i
	}
	batch := make([]board.Column, len(e.columns))
	copy(batch, e.columns)
	e.mu.Unlock()

	e.persistWrite("reorder columns", storage.TableColumns, func(ctx context.Context) error {
		return e.session.Store.UpsertColumns(ctx, e.profileID(), batch)
	})
	return nil
}
