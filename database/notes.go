package database

import (
	"context"
	"fmt"

	"github.com/pastelflow/pastelflow/board"
)

// UpsertDayNote inserts the note or replaces the content of the existing note
// for the same (profile_id, date).
func (s *Store) UpsertDayNote(ctx context.Context, n board.DayNote) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO day_notes (id, profile_id, date, content)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(profile_id, date) DO UPDATE SET content = excluded.content
	`, n.ID, n.ProfileID, n.Date, n.Content)
	if err != nil {
		return fmt.Errorf("failed to upsert day note: %w", err)
	}
	return nil
}

// ListDayNotes returns all of a profile's day notes.
func (s *Store) ListDayNotes(ctx context.Context, profileID string) ([]board.DayNote, error) {
	var notes []board.DayNote
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_id, date, content FROM day_notes WHERE profile_id = ? ORDER BY date`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list day notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n board.DayNote
		if err := rows.Scan(&n.ID, &n.ProfileID, &n.Date, &n.Content); err != nil {
			return nil, fmt.Errorf("failed to scan day note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}
