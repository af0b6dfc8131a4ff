package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pastelflow/pastelflow/storage"
)

// ListTasks returns a profile's tasks ordered by (position, id).
func (s *Store) ListTasks(ctx context.Context, profileID string) ([]storage.TaskRow, error) {
	var rows []storage.TaskRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, profile_id, column_id, content, color, position FROM tasks WHERE profile_id = ? ORDER BY position, id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return rows, nil
}

// GetTask returns one task row.
func (s *Store) GetTask(ctx context.Context, profileID, id string) (storage.TaskRow, error) {
	var r storage.TaskRow
	err := s.db.GetContext(ctx, &r,
		`SELECT id, profile_id, column_id, content, color, position FROM tasks WHERE profile_id = ? AND id = ?`,
		profileID, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.TaskRow{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.TaskRow{}, fmt.Errorf("failed to query task: %w", err)
	}
	return r, nil
}

// InsertTask stores a new task row. The owning column must exist for the same
// profile.
func (s *Store) InsertTask(ctx context.Context, r storage.TaskRow) error {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM columns WHERE profile_id = ? AND id = ?`, r.ProfileID, r.ColumnID)
	if err != nil {
		return fmt.Errorf("failed to check column: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("column %s: %w", r.ColumnID, storage.ErrNotFound)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, profile_id, column_id, content, color, position) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProfileID, r.ColumnID, r.Content, r.Color, r.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

// UpdateTask overwrites a task row in full (content, color, column and
// position together; last writer wins).
func (s *Store) UpdateTask(ctx context.Context, r storage.TaskRow) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET column_id = ?, content = ?, color = ?, position = ? WHERE profile_id = ? AND id = ?`,
		r.ColumnID, r.Content, r.Color, r.Position, r.ProfileID, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpsertTasks commits a drag-end reorder batch in one transaction.
func (s *Store) UpsertTasks(ctx context.Context, rows []storage.TaskRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (id, profile_id, column_id, content, color, position)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				column_id = excluded.column_id,
				content = excluded.content,
				color = excluded.color,
				position = excluded.position
		`, r.ID, r.ProfileID, r.ColumnID, r.Content, r.Color, r.Position)
		if err != nil {
			return fmt.Errorf("failed to upsert task %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteTask removes one task row.
func (s *Store) DeleteTask(ctx context.Context, profileID, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE profile_id = ? AND id = ?`, profileID, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}
