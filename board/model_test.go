package board

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareColumnsTieBreaksByID(t *testing.T) {
	a := Column{ID: "aaa", Position: 1}
	b := Column{ID: "bbb", Position: 1}
	c := Column{ID: "ccc", Position: 0}

	cols := []Column{b, a, c}
	SortColumns(cols)
	require.Equal(t, []string{"ccc", "aaa", "bbb"}, []string{cols[0].ID, cols[1].ID, cols[2].ID})

	// Deterministic when replayed.
	SortColumns(cols)
	assert.Equal(t, "ccc", cols[0].ID)
}

func TestSortEventsTimeThenPriority(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	events := []AgendaEvent{
		{ID: "e1", Title: "standup", StartTime: day.Add(10 * time.Hour), Priority: PriorityMedium},
		{ID: "e2", Title: "review", StartTime: day.Add(9 * time.Hour), Priority: PriorityHigh},
		{ID: "e3", Title: "email", StartTime: day.Add(9 * time.Hour), Priority: PriorityLow},
	}

	SortEvents(events)
	require.Equal(t, "e2", events[0].ID)
	require.Equal(t, "e3", events[1].ID)
	require.Equal(t, "e1", events[2].ID)
}

func TestPriorityCycle(t *testing.T) {
	p := PriorityLow
	var seen []Priority
	for i := 0; i < 3; i++ {
		p = p.Next()
		seen = append(seen, p)
	}
	assert.Equal(t, []Priority{PriorityMedium, PriorityHigh, PriorityLow}, seen)
}

func TestPriorityWeight(t *testing.T) {
	assert.Equal(t, 3, PriorityHigh.Weight())
	assert.Equal(t, 2, PriorityMedium.Weight())
	assert.Equal(t, 1, PriorityLow.Weight())
	assert.Equal(t, 1, Priority("nonsense").Weight())
}

func TestParsePriorityFallsBackToLow(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority("high"))
	assert.Equal(t, PriorityLow, ParsePriority("urgent"))
	assert.Equal(t, PriorityLow, ParsePriority(""))
}

func TestColorMetaFallback(t *testing.T) {
	assert.Equal(t, "#F8C8DC", ColorRose.Meta().Hex)
	assert.Equal(t, ColorSlate.Meta(), ColorTag("chartreuse").Meta())
	assert.Equal(t, ColorSlate, ParseColor("chartreuse"))
	assert.Equal(t, ColorMint, ParseColor("mint"))
}

func TestEventsOnDayUsesLocalDate(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	// 23:00 UTC on March 9 is already March 10 in UTC+10.
	late := AgendaEvent{ID: "late", StartTime: time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC)}
	early := AgendaEvent{ID: "early", StartTime: time.Date(2025, 3, 10, 1, 0, 0, 0, loc)}
	other := AgendaEvent{ID: "other", StartTime: time.Date(2025, 3, 11, 12, 0, 0, 0, loc)}

	day := time.Date(2025, 3, 10, 8, 0, 0, 0, loc)
	got := EventsOnDay([]AgendaEvent{other, late, early}, day)
	require.Len(t, got, 2)
	// "early" is 01:00 local (15:00 UTC the day before), so it sorts first.
	assert.Equal(t, "early", got[0].ID)
	assert.Equal(t, "late", got[1].ID)
}

func TestTasksInColumnFiltersPreservingOrder(t *testing.T) {
	tasks := []Task{
		{ID: "t1", ColumnID: "c1", Position: 2},
		{ID: "t2", ColumnID: "c2", Position: 0},
		{ID: "t3", ColumnID: "c1", Position: 1},
	}
	// Flat-list order wins over stale positions mid-drag.
	got := TasksInColumn(tasks, "c1")
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].ID)
	assert.Equal(t, "t3", got[1].ID)
}
