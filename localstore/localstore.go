// Package localstore is the fallback persistence adapter: one JSON snapshot
// per profile on local disk, used when no remote service is configured.
// Writes are fire-and-forget; a failed write is logged and dropped.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

// Store persists board state as JSON files under a base directory,
// namespaced per profile id.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

type boardSnapshot struct {
	Columns []board.Column `json:"columns"`
	Tasks   []board.Task   `json:"tasks"`
}

func (s *Store) boardPath(profileID string) string {
	return filepath.Join(s.dir, "board-"+profileID+".json")
}

func (s *Store) eventsPath(profileID string) string {
	return filepath.Join(s.dir, "events-"+profileID+".json")
}

func (s *Store) notesPath(profileID string) string {
	return filepath.Join(s.dir, "notes-"+profileID+".json")
}

func (s *Store) settingsPath(profileID string) string {
	return filepath.Join(s.dir, "settings-"+profileID+".json")
}

func (s *Store) profilesPath() string {
	return filepath.Join(s.dir, "profiles.json")
}

// DefaultBoard is the starter board a profile sees before it has saved
// anything: three empty columns at positions 0, 1, 2.
func DefaultBoard() []board.Column {
	return []board.Column{
		{ID: "starter-todo", Title: "To Do", Position: 0},
		{ID: "starter-in-progress", Title: "In Progress", Position: 1},
		{ID: "starter-done", Title: "Done", Position: 2},
	}
}

func readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeJSON is the fire-and-forget write path. A full disk or permission
// failure is logged and the write dropped; callers never see an error.
func writeJSON(path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("localstore: encode %s: %v", filepath.Base(path), err)
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Printf("localstore: write %s dropped: %v", filepath.Base(path), err)
	}
}

// loadBoard reads the stored snapshot as-is; ok reports whether one exists.
// The starter board is a read-path default only, injected by LoadBoard and
// never written back, so the first explicit write starts from what is
// actually stored.
func (s *Store) loadBoard(profileID string) (boardSnapshot, bool) {
	var snap boardSnapshot
	ok, err := readJSON(s.boardPath(profileID), &snap)
	if err != nil {
		log.Printf("localstore: read board snapshot: %v", err)
		ok = false
	}
	if snap.Columns == nil {
		snap.Columns = []board.Column{}
	}
	if snap.Tasks == nil {
		snap.Tasks = []board.Task{}
	}
	return snap, ok
}

func (s *Store) saveBoard(profileID string, snap boardSnapshot) {
	writeJSON(s.boardPath(profileID), snap)
}

// LoadBoard returns the profile's snapshot, or the default starter board when
// none exists yet. A stored snapshot with zero columns stays empty; the
// starters only ever stand in for a missing file.
func (s *Store) LoadBoard(ctx context.Context, profileID string) ([]board.Column, []board.Task, error) {
	snap, ok := s.loadBoard(profileID)
	if !ok {
		snap.Columns = DefaultBoard()
	}
	board.SortColumns(snap.Columns)
	board.SortTasks(snap.Tasks)
	return snap.Columns, snap.Tasks, nil
}

func (s *Store) InsertColumn(ctx context.Context, profileID string, c board.Column) error {
	snap, _ := s.loadBoard(profileID)
	snap.Columns = append(snap.Columns, c)
	s.saveBoard(profileID, snap)
	return nil
}

func (s *Store) UpdateColumn(ctx context.Context, profileID string, c board.Column) error {
	snap, _ := s.loadBoard(profileID)
	for i := range snap.Columns {
		if snap.Columns[i].ID == c.ID {
			snap.Columns[i] = c
		}
	}
	s.saveBoard(profileID, snap)
	return nil
}

func (s *Store) UpsertColumns(ctx context.Context, profileID string, cols []board.Column) error {
	snap, _ := s.loadBoard(profileID)
	for _, c := range cols {
		found := false
		for i := range snap.Columns {
			if snap.Columns[i].ID == c.ID {
				snap.Columns[i] = c
				found = true
				break
			}
		}
		if !found {
			snap.Columns = append(snap.Columns, c)
		}
	}
	s.saveBoard(profileID, snap)
	return nil
}

func (s *Store) DeleteColumn(ctx context.Context, profileID, id string) error {
	snap, _ := s.loadBoard(profileID)
	cols := snap.Columns[:0]
	for _, c := range snap.Columns {
		if c.ID != id {
			cols = append(cols, c)
		}
	}
	snap.Columns = cols
	tasks := snap.Tasks[:0]
	for _, t := range snap.Tasks {
		if t.ColumnID != id {
			tasks = append(tasks, t)
		}
	}
	snap.Tasks = tasks
	s.saveBoard(profileID, snap)
	return nil
}

func (s *Store) InsertTask(ctx context.Context, profileID string, t board.Task) error {
	snap, _ := s.loadBoard(profileID)
	snap.Tasks = append(snap.Tasks, t)
	s.saveBoard(profileID, snap)
	return nil
}

func (s *Store) UpdateTask(ctx context.Context, profileID string, t board.Task) error {
	snap, _ := s.loadBoard(profileID)
	for i := range snap.Tasks {
		if snap.Tasks[i].ID == t.ID {
			snap.Tasks[i] = t
		}
	}
	s.saveBoard(profileID, snap)
	return nil
}

func (s *Store) UpsertTasks(ctx context.Context, profileID string, tasks []board.Task) error {
	snap, _ := s.loadBoard(profileID)
	for _, t := range tasks {
		found := false
		for i := range snap.Tasks {
			if snap.Tasks[i].ID == t.ID {
				snap.Tasks[i] = t
				found = true
				break
			}
		}
		if !found {
			snap.Tasks = append(snap.Tasks, t)
		}
	}
	s.saveBoard(profileID, snap)
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, profileID, id string) error {
	snap, _ := s.loadBoard(profileID)
	tasks := snap.Tasks[:0]
	for _, t := range snap.Tasks {
		if t.ID != id {
			tasks = append(tasks, t)
		}
	}
	snap.Tasks = tasks
	s.saveBoard(profileID, snap)
	return nil
}

func (s *Store) ListEvents(ctx context.Context, profileID string) ([]board.AgendaEvent, error) {
	var events []board.AgendaEvent
	if _, err := readJSON(s.eventsPath(profileID), &events); err != nil {
		log.Printf("localstore: read events: %v", err)
	}
	board.SortEvents(events)
	return events, nil
}

func (s *Store) saveEvents(profileID string, events []board.AgendaEvent) {
	writeJSON(s.eventsPath(profileID), events)
}

func (s *Store) InsertEvent(ctx context.Context, ev board.AgendaEvent) error {
	events, _ := s.ListEvents(ctx, ev.ProfileID)
	events = append(events, ev)
	s.saveEvents(ev.ProfileID, events)
	return nil
}

func (s *Store) UpdateEvent(ctx context.Context, ev board.AgendaEvent) error {
	events, _ := s.ListEvents(ctx, ev.ProfileID)
	for i := range events {
		if events[i].ID == ev.ID {
			events[i] = ev
		}
	}
	s.saveEvents(ev.ProfileID, events)
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, profileID, id string) error {
	events, _ := s.ListEvents(ctx, profileID)
	out := events[:0]
	for _, ev := range events {
		if ev.ID != id {
			out = append(out, ev)
		}
	}
	s.saveEvents(profileID, out)
	return nil
}

// UpsertDayNote replaces the note for the same (profile, date) if present.
func (s *Store) UpsertDayNote(ctx context.Context, n board.DayNote) error {
	notes, _ := s.ListDayNotes(ctx, n.ProfileID)
	replaced := false
	for i := range notes {
		if notes[i].Date == n.Date {
			notes[i].Content = n.Content
			replaced = true
		}
	}
	if !replaced {
		notes = append(notes, n)
	}
	writeJSON(s.notesPath(n.ProfileID), notes)
	return nil
}

func (s *Store) ListDayNotes(ctx context.Context, profileID string) ([]board.DayNote, error) {
	var notes []board.DayNote
	if _, err := readJSON(s.notesPath(profileID), &notes); err != nil {
		log.Printf("localstore: read day notes: %v", err)
	}
	return notes, nil
}

func (s *Store) SaveSettings(ctx context.Context, profileID string, set board.ProfileSettings) error {
	writeJSON(s.settingsPath(profileID), set)
	return nil
}

// LoadSettings returns the saved widget settings, empty when never saved.
func (s *Store) LoadSettings(profileID string) board.ProfileSettings {
	var set board.ProfileSettings
	if _, err := readJSON(s.settingsPath(profileID), &set); err != nil {
		log.Printf("localstore: read settings: %v", err)
	}
	return set
}

// LoadProfiles returns the locally stored profile list used when the remote
// service is not configured.
func (s *Store) LoadProfiles() []board.Profile {
	var profiles []board.Profile
	if _, err := readJSON(s.profilesPath(), &profiles); err != nil {
		log.Printf("localstore: read profiles: %v", err)
	}
	return profiles
}

// SaveProfiles replaces the locally stored profile list.
func (s *Store) SaveProfiles(profiles []board.Profile) {
	writeJSON(s.profilesPath(), profiles)
}

var _ storage.Store = (*Store)(nil)
