package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pastelflow/pastelflow/storage"
)

// ListEvents returns a profile's agenda events ordered by start time.
func (s *Store) ListEvents(ctx context.Context, profileID string) ([]storage.EventRow, error) {
	var rows []storage.EventRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, profile_id, title, description, start_time, end_time, category, is_completed, priority
		FROM agenda_events WHERE profile_id = ? ORDER BY start_time, id`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return rows, nil
}

// GetEvent returns one agenda event row.
func (s *Store) GetEvent(ctx context.Context, profileID, id string) (storage.EventRow, error) {
	var r storage.EventRow
	err := s.db.GetContext(ctx, &r, `
		SELECT id, profile_id, title, description, start_time, end_time, category, is_completed, priority
		FROM agenda_events WHERE profile_id = ? AND id = ?`,
		profileID, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.EventRow{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.EventRow{}, fmt.Errorf("failed to query event: %w", err)
	}
	return r, nil
}

// InsertEvent stores a new agenda event row.
func (s *Store) InsertEvent(ctx context.Context, r storage.EventRow) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agenda_events (id, profile_id, title, description, start_time, end_time, category, is_completed, priority)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.ProfileID, r.Title, r.Description, r.StartTime, r.EndTime, r.Category, r.IsCompleted, r.Priority,
	)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// UpdateEvent overwrites an agenda event row in full.
func (s *Store) UpdateEvent(ctx context.Context, r storage.EventRow) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE agenda_events
		SET title = ?, description = ?, start_time = ?, end_time = ?, category = ?, is_completed = ?, priority = ?
		WHERE profile_id = ? AND id = ?`,
		r.Title, r.Description, r.StartTime, r.EndTime, r.Category, r.IsCompleted, r.Priority, r.ProfileID, r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteEvent removes one agenda event row.
func (s *Store) DeleteEvent(ctx context.Context, profileID, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM agenda_events WHERE profile_id = ? AND id = ?`, profileID, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}
