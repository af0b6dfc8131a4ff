package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pastelflow/pastelflow/storage"
)

// ListColumns returns a profile's columns ordered by (position, id).
func (s *Store) ListColumns(ctx context.Context, profileID string) ([]storage.ColumnRow, error) {
	var rows []storage.ColumnRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, profile_id, title, color, position FROM columns WHERE profile_id = ? ORDER BY position, id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return rows, nil
}

// GetColumn returns one column row.
func (s *Store) GetColumn(ctx context.Context, profileID, id string) (storage.ColumnRow, error) {
	var r storage.ColumnRow
	err := s.db.GetContext(ctx, &r,
		`SELECT id, profile_id, title, color, position FROM columns WHERE profile_id = ? AND id = ?`,
		profileID, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ColumnRow{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ColumnRow{}, fmt.Errorf("failed to query column: %w", err)
	}
	return r, nil
}

// InsertColumn stores a new column row.
func (s *Store) InsertColumn(ctx context.Context, r storage.ColumnRow) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO columns (id, profile_id, title, color, position) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.ProfileID, r.Title, r.Color, r.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert column: %w", err)
	}
	return nil
}

// UpdateColumn overwrites a column row in full.
func (s *Store) UpdateColumn(ctx context.Context, r storage.ColumnRow) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE columns SET title = ?, color = ?, position = ? WHERE profile_id = ? AND id = ?`,
		r.Title, r.Color, r.Position, r.ProfileID, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update column: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// UpsertColumns commits a reorder batch in one transaction.
func (s *Store) UpsertColumns(ctx context.Context, rows []storage.ColumnRow) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO columns (id, profile_id, title, color, position)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				color = excluded.color,
				position = excluded.position
		`, r.ID, r.ProfileID, r.Title, r.Color, r.Position)
		if err != nil {
			return fmt.Errorf("failed to upsert column %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteColumn removes a column and all of its tasks in one transaction.
func (s *Store) DeleteColumn(ctx context.Context, profileID, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE profile_id = ? AND column_id = ?`, profileID, id); err != nil {
		return fmt.Errorf("failed to delete column tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM columns WHERE profile_id = ? AND id = ?`, profileID, id); err != nil {
		return fmt.Errorf("failed to delete column: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
