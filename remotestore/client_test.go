package remotestore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

type recordedRequest struct {
	method string
	path   string
	auth   string
	client string
	body   []byte
}

// stubServer records every request and plays back canned JSON responses.
func stubServer(t *testing.T, responses map[string]any) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var log []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		log = append(log, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			auth:   r.Header.Get("Authorization"),
			client: r.Header.Get("X-Client-ID"),
			body:   body,
		})
		if resp, ok := responses[r.Method+" "+r.URL.Path]; ok {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(resp)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "success"})
	}))
	t.Cleanup(srv.Close)
	return srv, &log
}

func TestRequestsCarrySessionHeaders(t *testing.T) {
	srv, log := stubServer(t, nil)
	c := New(srv.URL, "tok-123", "client-a")

	require.NoError(t, c.InsertColumn(context.Background(), "p1", board.Column{ID: "c1", Title: "Backlog"}))

	require.Len(t, *log, 1)
	got := (*log)[0]
	assert.Equal(t, "POST", got.method)
	assert.Equal(t, "/api/columns", got.path)
	assert.Equal(t, "Bearer tok-123", got.auth)
	assert.Equal(t, "client-a", got.client)

	var row storage.ColumnRow
	require.NoError(t, json.Unmarshal(got.body, &row))
	assert.Equal(t, "p1", row.ProfileID)
	assert.Equal(t, "Backlog", row.Title)
}

func TestLoadBoardUnpacksTasks(t *testing.T) {
	packed := storage.NewTaskRow("p1", board.Task{
		ID: "t1", ColumnID: "c1", Content: "card",
		Description: "<p>rich</p>", IsChecklist: true, Position: 0,
	})
	srv, _ := stubServer(t, map[string]any{
		"GET /api/board": map[string]any{
			"columns": []storage.ColumnRow{
				{ID: "c2", ProfileID: "p1", Title: "Later", Position: 1},
				{ID: "c1", ProfileID: "p1", Title: "Now", Position: 0},
			},
			"tasks": []storage.TaskRow{packed},
		},
	})
	c := New(srv.URL, "tok", "client-a")

	cols, tasks, err := c.LoadBoard(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "Now", cols[0].Title, "columns come back sorted by position")
	require.Len(t, tasks, 1)
	assert.Equal(t, "card", tasks[0].Content)
	assert.Equal(t, "<p>rich</p>", tasks[0].Description)
	assert.True(t, tasks[0].IsChecklist)
}

func TestNotFoundMapsToSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Task not found", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, "tok", "client-a")

	err := c.UpdateTask(context.Background(), "p1", board.Task{ID: "ghost"})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestServerErrorSurfacesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database is on fire", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := New(srv.URL, "tok", "client-a")

	err := c.DeleteTask(context.Background(), "p1", "t1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "database is on fire")
}

func TestEventsRoundTripWireFormat(t *testing.T) {
	srv, log := stubServer(t, map[string]any{
		"GET /api/events": []storage.EventRow{
			{ID: "e1", ProfileID: "p1", Title: "standup", StartTime: "2025-06-01T09:00:00Z", Priority: "high"},
		},
	})
	c := New(srv.URL, "tok", "client-a")
	ctx := context.Background()

	events, err := c.ListEvents(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, board.PriorityHigh, events[0].Priority)
	assert.Equal(t, 2025, events[0].StartTime.Year())

	require.NoError(t, c.InsertEvent(ctx, events[0]))
	got := (*log)[1]
	var row storage.EventRow
	require.NoError(t, json.Unmarshal(got.body, &row))
	assert.Equal(t, "2025-06-01T09:00:00Z", row.StartTime, "times travel as RFC3339 strings")
}
