package storage

import (
	"time"

	"github.com/pastelflow/pastelflow/board"
)

// Wire/table row shapes. Columns and tasks gain an explicit profile_id on the
// wire; a task's rich fields ride packed inside the content column.

type ColumnRow struct {
	ID        string `json:"id" db:"id"`
	ProfileID string `json:"profile_id" db:"profile_id"`
	Title     string `json:"title" db:"title"`
	Color     string `json:"color" db:"color"`
	Position  int    `json:"position" db:"position"`
}

type TaskRow struct {
	ID        string `json:"id" db:"id"`
	ProfileID string `json:"profile_id" db:"profile_id"`
	ColumnID  string `json:"column_id" db:"column_id"`
	Content   string `json:"content" db:"content"`
	Color     string `json:"color" db:"color"`
	Position  int    `json:"position" db:"position"`
}

type EventRow struct {
	ID          string `json:"id" db:"id"`
	ProfileID   string `json:"profile_id" db:"profile_id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	StartTime   string `json:"start_time" db:"start_time"`
	EndTime     string `json:"end_time" db:"end_time"`
	Category    string `json:"category" db:"category"`
	IsCompleted bool   `json:"is_completed" db:"is_completed"`
	Priority    string `json:"priority" db:"priority"`
}

func NewColumnRow(profileID string, c board.Column) ColumnRow {
	return ColumnRow{
		ID:        c.ID,
		ProfileID: profileID,
		Title:     c.Title,
		Color:     string(c.Color),
		Position:  c.Position,
	}
}

func (r ColumnRow) Column() board.Column {
	return board.Column{
		ID:       r.ID,
		Title:    r.Title,
		Color:    board.ColorTag(r.Color),
		Position: r.Position,
	}
}

func NewTaskRow(profileID string, t board.Task) TaskRow {
	return TaskRow{
		ID:        t.ID,
		ProfileID: profileID,
		ColumnID:  t.ColumnID,
		Content:   board.PackContent(t),
		Color:     string(t.Color),
		Position:  t.Position,
	}
}

func (r TaskRow) Task() board.Task {
	t := board.Task{
		ID:       r.ID,
		ColumnID: r.ColumnID,
		Color:    board.ColorTag(r.Color),
		Position: r.Position,
	}
	t.ApplyUnpacked(board.UnpackContent(r.Content, ""))
	return t
}

func NewEventRow(ev board.AgendaEvent) EventRow {
	r := EventRow{
		ID:          ev.ID,
		ProfileID:   ev.ProfileID,
		Title:       ev.Title,
		Description: ev.Description,
		StartTime:   ev.StartTime.UTC().Format(time.RFC3339),
		Category:    string(ev.Category),
		IsCompleted: ev.IsCompleted,
		Priority:    string(ev.Priority),
	}
	if ev.EndTime != nil {
		r.EndTime = ev.EndTime.UTC().Format(time.RFC3339)
	}
	return r
}

func (r EventRow) Event() board.AgendaEvent {
	ev := board.AgendaEvent{
		ID:          r.ID,
		ProfileID:   r.ProfileID,
		Title:       r.Title,
		Description: r.Description,
		Category:    board.ColorTag(r.Category),
		IsCompleted: r.IsCompleted,
		Priority:    board.ParsePriority(r.Priority),
	}
	ev.StartTime, _ = time.Parse(time.RFC3339, r.StartTime)
	if r.EndTime != "" {
		if end, err := time.Parse(time.RFC3339, r.EndTime); err == nil {
			ev.EndTime = &end
		}
	}
	return ev
}
