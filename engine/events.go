package engine

import (
	"context"
	"strings"

	"github.com/pastelflow/pastelflow/board"
)

// AddEvent creates an agenda event from the "new event" or quick-add forms.
func (e *Engine) AddEvent(ev board.AgendaEvent) (board.AgendaEvent, error) {
	if strings.TrimSpace(ev.Title) == "" {
		return board.AgendaEvent{}, ErrEmptyTitle
	}
	if ev.StartTime.IsZero() {
		return board.AgendaEvent{}, ErrNoStartTime
	}

	if ev.ID == "" {
		ev.ID = board.NewID()
	}
	ev.ProfileID = e.profileID()
	if ev.Priority == "" {
		ev.Priority = board.PriorityLow
	}

	e.mu.Lock()
	e.events = append(e.events, ev)
	board.SortEvents(e.events)
	saved := ev
	e.undo.push(Action{Kind: ActionEventCreate, Event: &saved})
	e.mu.Unlock()

	e.persistCreate("create event", eventKey(saved.ID), func(ctx context.Context) error {
		return e.session.Store.InsertEvent(ctx, saved)
	}, func() {
		e.removeEventLocked(saved.ID)
		e.undo.dropEventCreate(saved.ID)
	})
	return saved, nil
}

// UpdateEvent overwrites an event's mutable fields.
func (e *Engine) UpdateEvent(ev board.AgendaEvent) error {
	if strings.TrimSpace(ev.Title) == "" {
		return ErrEmptyTitle
	}
	if ev.StartTime.IsZero() {
		return ErrNoStartTime
	}

	e.mu.Lock()
	i := e.eventIndex(ev.ID)
	if i < 0 {
		e.mu.Unlock()
		return ErrNoSuchEvent
	}
	prev := e.events[i]
	ev.ProfileID = prev.ProfileID
	e.events[i] = ev
	board.SortEvents(e.events)
	curr := ev
	e.undo.push(Action{Kind: ActionEventUpdate, Event: &curr, PrevEvent: &prev})
	e.mu.Unlock()

	e.persistWrite("update event", eventKey(curr.ID), func(ctx context.Context) error {
		return e.session.Store.UpdateEvent(ctx, curr)
	})
	return nil
}

// ToggleEventCompleted flips an event's completion flag.
func (e *Engine) ToggleEventCompleted(id string) error {
	e.mu.Lock()
	i := e.eventIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return ErrNoSuchEvent
	}
	prev := e.events[i]
	e.events[i].IsCompleted = !e.events[i].IsCompleted
	curr := e.events[i]
	e.undo.push(Action{Kind: ActionEventUpdate, Event: &curr, PrevEvent: &prev})
	e.mu.Unlock()

	e.persistWrite("toggle event", eventKey(id), func(ctx context.Context) error {
		return e.session.Store.UpdateEvent(ctx, curr)
	})
	return nil
}

// CycleEventPriority advances low -> medium -> high -> low and returns the
// new priority.
func (e *Engine) CycleEventPriority(id string) (board.Priority, error) {
	e.mu.Lock()
	i := e.eventIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return "", ErrNoSuchEvent
	}
	prev := e.events[i]
	e.events[i].Priority = e.events[i].Priority.Next()
	curr := e.events[i]
	board.SortEvents(e.events)
	e.undo.push(Action{Kind: ActionEventUpdate, Event: &curr, PrevEvent: &prev})
	e.mu.Unlock()

	e.persistWrite("cycle event priority", eventKey(id), func(ctx context.Context) error {
		return e.session.Store.UpdateEvent(ctx, curr)
	})
	return curr.Priority, nil
}

// RecolorEvent sets an event's category tag.
func (e *Engine) RecolorEvent(id string, category board.ColorTag) error {
	e.mu.Lock()
	i := e.eventIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return ErrNoSuchEvent
	}
	prev := e.events[i]
	e.events[i].Category = category
	curr := e.events[i]
	e.undo.push(Action{Kind: ActionEventUpdate, Event: &curr, PrevEvent: &prev})
	e.mu.Unlock()

	e.persistWrite("recolor event", eventKey(id), func(ctx context.Context) error {
		return e.session.Store.UpdateEvent(ctx, curr)
	})
	return nil
}

// DeleteEvent removes an agenda event, capturing the full entity for undo.
func (e *Engine) DeleteEvent(id string) error {
	e.mu.Lock()
	i := e.eventIndex(id)
	if i < 0 {
		e.mu.Unlock()
		return ErrNoSuchEvent
	}
	deleted := e.events[i]
	e.removeEventLocked(id)
	e.undo.push(Action{Kind: ActionEventDelete, Event: &deleted})
	e.mu.Unlock()

	e.persistWrite("delete event", eventKey(id), func(ctx context.Context) error {
		return e.session.Store.DeleteEvent(ctx, e.profileID(), id)
	})
	return nil
}

// SaveDayNote creates or replaces the note for a date. Saving twice for the
// same date leaves exactly one note holding the latest content. Day notes are
// outside the undo log.
func (e *Engine) SaveDayNote(date, content string) (board.DayNote, error) {
	if strings.TrimSpace(date) == "" {
		return board.DayNote{}, ErrEmptyDate
	}

	e.mu.Lock()
	var note board.DayNote
	found := false
	for i := range e.notes {
		if e.notes[i].Date == date {
			e.notes[i].Content = content
			note = e.notes[i]
			found = true
			break
		}
	}
	if !found {
		note = board.DayNote{
			ID:        board.NewID(),
			ProfileID: e.profileID(),
			Date:      date,
			Content:   content,
		}
		e.notes = append(e.notes, note)
	}
	e.mu.Unlock()

	e.persistWrite("save day note", "day_notes/"+note.Date, func(ctx context.Context) error {
		return e.session.Store.UpsertDayNote(ctx, note)
	})
	return note, nil
}

// SaveSettings shallow-merges a widget-settings patch into the profile and
// persists the merged value.
func (e *Engine) SaveSettings(patch board.ProfileSettings) board.ProfileSettings {
	e.mu.Lock()
	e.session.Profile.Settings = board.MergeSettings(e.session.Profile.Settings, patch)
	merged := e.session.Profile.Settings
	e.mu.Unlock()

	e.persistWrite("save settings", "settings", func(ctx context.Context) error {
		return e.session.Store.SaveSettings(ctx, e.profileID(), merged)
	})
	return merged
}
