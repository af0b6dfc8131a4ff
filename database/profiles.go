package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

type profileRow struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	PIN      string `db:"pin"`
	Avatar   string `db:"avatar"`
	Settings string `db:"settings"`
}

func (r profileRow) profile() board.Profile {
	p := board.Profile{ID: r.ID, Name: r.Name, PIN: r.PIN, Avatar: r.Avatar}
	if r.Settings != "" {
		// A settings blob that fails to decode is treated as never saved.
		_ = json.Unmarshal([]byte(r.Settings), &p.Settings)
	}
	return p
}

// CreateProfile inserts a new profile. The caller proposes the id.
func (s *Store) CreateProfile(ctx context.Context, p board.Profile) error {
	settings, err := json.Marshal(p.Settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, name, pin, avatar, settings) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.PIN, p.Avatar, string(settings),
	)
	if err != nil {
		return fmt.Errorf("failed to insert profile: %w", err)
	}
	return nil
}

// GetProfile returns one profile by id.
func (s *Store) GetProfile(ctx context.Context, id string) (board.Profile, error) {
	var r profileRow
	err := s.db.GetContext(ctx, &r, `SELECT id, name, pin, avatar, settings FROM profiles WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return board.Profile{}, storage.ErrNotFound
	}
	if err != nil {
		return board.Profile{}, fmt.Errorf("failed to query profile: %w", err)
	}
	return r.profile(), nil
}

// ListProfiles returns all profiles, for the access-gate picker.
func (s *Store) ListProfiles(ctx context.Context) ([]board.Profile, error) {
	var rows []profileRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT id, name, pin, avatar, settings FROM profiles ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	profiles := make([]board.Profile, 0, len(rows))
	for _, r := range rows {
		profiles = append(profiles, r.profile())
	}
	return profiles, nil
}

// SaveSettings replaces a profile's stored settings blob. The handler merges
// before calling, so this is a whole-value overwrite.
func (s *Store) SaveSettings(ctx context.Context, profileID string, set board.ProfileSettings) error {
	settings, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET settings = ? WHERE id = ?`, string(settings), profileID)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
