// Package remotestore is the remote persistence adapter: it speaks the hosted
// service's row-level HTTP surface and its websocket change feed. Entity ids
// are always proposed client-side, so a successful insert changes nothing the
// caller does not already know.
package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/storage"
)

// Client implements storage.Store against a PastelFlow server.
type Client struct {
	baseURL  string
	token    string
	clientID string
	http     *http.Client
}

// New returns a Client for the server at baseURL, authenticated with the
// session token. clientID identifies this session so the server's broadcasts
// can skip echoing our own writes.
func New(baseURL, token, clientID string) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		clientID: clientID,
		http:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("X-Client-ID", c.clientID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return storage.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// LoadBoard fetches the profile's columns and tasks and unpacks each task's
// content blob.
func (c *Client) LoadBoard(ctx context.Context, profileID string) ([]board.Column, []board.Task, error) {
	var resp struct {
		Columns []storage.ColumnRow `json:"columns"`
		Tasks   []storage.TaskRow   `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/board", nil, &resp); err != nil {
		return nil, nil, err
	}

	columns := make([]board.Column, 0, len(resp.Columns))
	for _, r := range resp.Columns {
		columns = append(columns, r.Column())
	}
	tasks := make([]board.Task, 0, len(resp.Tasks))
	for _, r := range resp.Tasks {
		tasks = append(tasks, r.Task())
	}
	board.SortColumns(columns)
	board.SortTasks(tasks)
	return columns, tasks, nil
}

func (c *Client) InsertColumn(ctx context.Context, profileID string, col board.Column) error {
	return c.do(ctx, http.MethodPost, "/api/columns", storage.NewColumnRow(profileID, col), nil)
}

func (c *Client) UpdateColumn(ctx context.Context, profileID string, col board.Column) error {
	return c.do(ctx, http.MethodPatch, "/api/columns/"+col.ID, storage.NewColumnRow(profileID, col), nil)
}

func (c *Client) UpsertColumns(ctx context.Context, profileID string, cols []board.Column) error {
	rows := make([]storage.ColumnRow, 0, len(cols))
	for _, col := range cols {
		rows = append(rows, storage.NewColumnRow(profileID, col))
	}
	return c.do(ctx, http.MethodPut, "/api/columns", rows, nil)
}

func (c *Client) DeleteColumn(ctx context.Context, profileID, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/columns/"+id, nil, nil)
}

func (c *Client) InsertTask(ctx context.Context, profileID string, t board.Task) error {
	return c.do(ctx, http.MethodPost, "/api/tasks", storage.NewTaskRow(profileID, t), nil)
}

func (c *Client) UpdateTask(ctx context.Context, profileID string, t board.Task) error {
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+t.ID, storage.NewTaskRow(profileID, t), nil)
}

func (c *Client) UpsertTasks(ctx context.Context, profileID string, tasks []board.Task) error {
	rows := make([]storage.TaskRow, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, storage.NewTaskRow(profileID, t))
	}
	return c.do(ctx, http.MethodPut, "/api/tasks", rows, nil)
}

func (c *Client) DeleteTask(ctx context.Context, profileID, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/tasks/"+id, nil, nil)
}

func (c *Client) ListEvents(ctx context.Context, profileID string) ([]board.AgendaEvent, error) {
	var rows []storage.EventRow
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &rows); err != nil {
		return nil, err
	}
	events := make([]board.AgendaEvent, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.Event())
	}
	board.SortEvents(events)
	return events, nil
}

func (c *Client) InsertEvent(ctx context.Context, ev board.AgendaEvent) error {
	return c.do(ctx, http.MethodPost, "/api/events", storage.NewEventRow(ev), nil)
}

func (c *Client) UpdateEvent(ctx context.Context, ev board.AgendaEvent) error {
	return c.do(ctx, http.MethodPatch, "/api/events/"+ev.ID, storage.NewEventRow(ev), nil)
}

func (c *Client) DeleteEvent(ctx context.Context, profileID, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/events/"+id, nil, nil)
}

func (c *Client) UpsertDayNote(ctx context.Context, n board.DayNote) error {
	return c.do(ctx, http.MethodPut, "/api/notes", n, nil)
}

func (c *Client) ListDayNotes(ctx context.Context, profileID string) ([]board.DayNote, error) {
	var notes []board.DayNote
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) SaveSettings(ctx context.Context, profileID string, s board.ProfileSettings) error {
	return c.do(ctx, http.MethodPatch, "/api/profiles/settings", s, nil)
}

var _ storage.Store = (*Client)(nil)
