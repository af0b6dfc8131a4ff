package board

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// NewID returns a client-proposed identifier for a new entity. IDs are
// generated before any persistence call so the optimistic UI never waits on a
// round trip to learn an entity's final identity.
func NewID() string {
	return uuid.NewString()
}

// Profile is a board owner. The PIN is an optional 4-digit access gate,
// compared in plaintext.
type Profile struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Avatar   string          `json:"avatar,omitempty"`
	PIN      string          `json:"pin,omitempty"`
	Settings ProfileSettings `json:"settings"`
}

// Column is a named kanban lane. Position is an ordering key, renumbered to a
// dense 0..N-1 sequence on every committed reorder; ties are broken by id so
// render order stays deterministic even when a lagging replica hands back
// duplicate positions.
type Column struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Color    ColorTag `json:"color,omitempty"`
	Position int      `json:"position"`
}

// Attachment is a link attached to a task.
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type,omitempty"`
}

// Task is a single card. It belongs to exactly one column at a time.
type Task struct {
	ID          string       `json:"id"`
	ColumnID    string       `json:"columnId"`
	Content     string       `json:"content"`
	Description string       `json:"description,omitempty"`
	Color       ColorTag     `json:"color,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	IsChecklist bool         `json:"isChecklist,omitempty"`
	Position    int          `json:"position"`
}

// AgendaEvent is a calendar entry owned by a profile.
type AgendaEvent struct {
	ID          string     `json:"id"`
	ProfileID   string     `json:"profile_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Category    ColorTag   `json:"category,omitempty"`
	IsCompleted bool       `json:"is_completed"`
	Priority    Priority   `json:"priority"`
}

// DayNote is free text pinned to a calendar date. At most one exists per
// (profile, date) pair; saves upsert on that key.
type DayNote struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	Date      string `json:"date"` // YYYY-MM-DD
	Content   string `json:"content"`
}

// Priority orders agenda events within the same start time.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Weight returns the numeric rank used as a sort tie-break: high=3, medium=2,
// low=1. Unknown values rank as low.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}

// Next cycles low -> medium -> high -> low.
func (p Priority) Next() Priority {
	switch p {
	case PriorityLow:
		return PriorityMedium
	case PriorityMedium:
		return PriorityHigh
	case PriorityHigh:
		return PriorityLow
	default:
		return PriorityMedium
	}
}

// ParsePriority maps stored text onto the closed enumeration, defaulting to
// low for anything unrecognized.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s)
	default:
		return PriorityLow
	}
}

// CompareColumns orders columns by position, then lexicographically by id.
// Returns a negative number when a sorts before b.
func CompareColumns(a, b Column) int {
	if a.Position != b.Position {
		return a.Position - b.Position
	}
	switch {
	case a.ID < b.ID:
		return -1
	case a.ID > b.ID:
		return 1
	default:
		return 0
	}
}

// SortColumns sorts in place by (position, id).
func SortColumns(cols []Column) {
	sort.SliceStable(cols, func(i, j int) bool {
		return CompareColumns(cols[i], cols[j]) < 0
	})
}

// SortTasks sorts in place by (position, id).
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.ID < b.ID
	})
}

// SortEvents sorts in place for display: start time ascending, then priority
// descending, then id.
func SortEvents(events []AgendaEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if a.Priority.Weight() != b.Priority.Weight() {
			return a.Priority.Weight() > b.Priority.Weight()
		}
		return a.ID < b.ID
	})
}

// EventsOnDay filters events whose start falls on the same calendar day as
// day, compared by local date components in day's location rather than by UTC
// day, so "today" matches what the user sees.
func EventsOnDay(events []AgendaEvent, day time.Time) []AgendaEvent {
	y, m, d := day.Date()
	var out []AgendaEvent
	for _, ev := range events {
		ey, em, ed := ev.StartTime.In(day.Location()).Date()
		if ey == y && em == m && ed == d {
			out = append(out, ev)
		}
	}
	SortEvents(out)
	return out
}

// TasksInColumn returns one column's filtered view. The flat list's order is
// preserved, not re-sorted: during a drag the array order is the render
// order, and persisted positions only catch up at commit time.
func TasksInColumn(tasks []Task, columnID string) []Task {
	var out []Task
	for _, t := range tasks {
		if t.ColumnID == columnID {
			out = append(out, t)
		}
	}
	return out
}
