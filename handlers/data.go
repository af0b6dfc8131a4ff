package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/database"
	"github.com/pastelflow/pastelflow/services"
	"github.com/pastelflow/pastelflow/storage"
)

// DataHandler handles the row-level entity endpoints
type DataHandler struct {
	store       *database.Store
	authService *services.AuthService
	hub         *services.Hub
}

func NewDataHandler(store *database.Store, authService *services.AuthService, hub *services.Hub) *DataHandler {
	return &DataHandler{
		store:       store,
		authService: authService,
		hub:         hub,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func rawRow(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshalling row: %v", err)
		return nil
	}
	return data
}

// notify fans a row change out to the profile's other sessions.
func (h *DataHandler) notify(r *http.Request, profileID, table string, typ storage.ChangeType, newRow, oldRow any) {
	change := storage.Change{Table: table, Type: typ}
	if newRow != nil {
		change.New = rawRow(newRow)
	}
	if oldRow != nil {
		change.Old = rawRow(oldRow)
	}
	h.hub.BroadcastChange(profileID, r.Header.Get(clientIDHeader), change)
}

// GetBoard returns all of a profile's columns and tasks.
func (h *DataHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	columns, err := h.store.ListColumns(r.Context(), profileID)
	if err != nil {
		log.Printf("Error listing columns: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	tasks, err := h.store.ListTasks(r.Context(), profileID)
	if err != nil {
		log.Printf("Error listing tasks: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	if columns == nil {
		columns = []storage.ColumnRow{}
	}
	if tasks == nil {
		tasks = []storage.TaskRow{}
	}

	writeJSON(w, map[string]any{
		"columns": columns,
		"tasks":   tasks,
	})
}

// --- columns ---

func (h *DataHandler) InsertColumn(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	var row storage.ColumnRow
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	row.ProfileID = profileID

	if err := h.store.InsertColumn(r.Context(), row); err != nil {
		log.Printf("Error inserting column: %v", err)
		http.Error(w, "Failed to insert column", http.StatusInternalServerError)
		return
	}

	h.notify(r, profileID, storage.TableColumns, storage.ChangeInsert, row, nil)
	writeJSON(w, map[string]any{"status": "success", "id": row.ID})
}

func (h *DataHandler) UpdateColumn(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	var row storage.ColumnRow
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	row.ID = id
	row.ProfileID = profileID

	old, err := h.store.GetColumn(r.Context(), profileID, id)
	if err != nil {
		http.Error(w, "Column not found", http.StatusNotFound)
		return
	}

	if err := h.store.UpdateColumn(r.Context(), row); err != nil {
		log.Printf("Error updating column: %v", err)
		http.Error(w, "Failed to update column", http.StatusInternalServerError)
		return
	}

	h.notify(r, profileID, storage.TableColumns, storage.ChangeUpdate, row, old)
	writeJSON(w, map[string]string{"status": "success"})
}

func (h *DataHandler) UpsertColumns(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	var rows []storage.ColumnRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	for i := range rows {
		rows[i].ProfileID = profileID
	}

	if err := h.store.UpsertColumns(r.Context(), rows); err != nil {
		log.Printf("Error upserting columns: %v", err)
		http.Error(w, "Failed to upsert columns", http.StatusInternalServerError)
		return
	}

	for _, row := range rows {
		h.notify(r, profileID, storage.TableColumns, storage.ChangeUpdate, row, nil)
	}
	writeJSON(w, map[string]string{"status": "success"})
}

func (h *DataHandler) DeleteColumn(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	old, err := h.store.GetColumn(r.Context(), profileID, id)
	if err != nil {
		http.Error(w, "Column not found", http.StatusNotFound)
		return
	}

	if err := h.store.DeleteColumn(r.Context(), profileID, id); err != nil {
		log.Printf("Error deleting column: %v", err)
		http.Error(w, "Failed to delete column", http.StatusInternalServerError)
		return
	}

	h.notify(r, profileID, storage.TableColumns, storage.ChangeDelete, nil, old)
	writeJSON(w, map[string]string{"status": "success"})
}

// --- tasks ---

func (h *DataHandler) InsertTask(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	var row storage.TaskRow
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	row.ProfileID = profileID

	if err := h.store.InsertTask(r.Context(), row); err != nil {
		log.Printf("Error inserting task: %v", err)
		http.Error(w, "Failed to insert task", http.StatusInternalServerError)
		return
	}

	h.notify(r, profileID, storage.TableTasks, storage.ChangeInsert, row, nil)
	writeJSON(w, map[string]any{"status": "success", "id": row.ID})
}

func (h *DataHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	var row storage.TaskRow
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	row.ID = id
	row.ProfileID = profileID

	old, err := h.store.GetTask(r.Context(), profileID, id)
	if err != nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	if err := h.store.UpdateTask(r.Context(), row); err != nil {
		log.Printf("Error updating task: %v", err)
		http.Error(w, "Failed to update task", http.StatusInternalServerError)
		return
	}

	h.notify(r, profileID, storage.TableTasks, storage.ChangeUpdate, row, old)
	writeJSON(w, map[string]string{"status": "success"})
}

func (h *DataHandler) UpsertTasks(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	var rows []storage.TaskRow
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	for i := range rows {
		rows[i].ProfileID = profileID
	}

	if err := h.store.UpsertTasks(r.Context(), rows); err != nil {
		log.Printf("Error upserting tasks: %v", err)
		http.Error(w, "Failed to upsert tasks", http.StatusInternalServerError)
		return
	}

	for _, row := range rows {
		h.notify(r, profileID, storage.TableTasks, storage.ChangeUpdate, row, nil)
	}
	writeJSON(w, map[string]string{"status": "success"})
}

func (h *DataHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	old, err := h.store.GetTask(r.Context(), profileID, id)
	if err != nil {
		http.Error(w, "Task not found", http.StatusNotFound)
		return
	}

	if err := h.store.DeleteTask(r.Context(), profileID, id); err != nil {
		log.Printf("Error deleting task: %v", err)
		http.Error(w, "Failed to delete task", http.StatusInternalServerError)
		return
	}

	h.notify(r, profileID, storage.TableTasks, storage.ChangeDelete, nil, old)
	writeJSON(w, map[string]string{"status": "success"})
}

// --- agenda events ---

func (h *DataHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	events, err := h.store.ListEvents(r.Context(), profileID)
	if err != nil {
		log.Printf("Error listing events: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []storage.EventRow{}
	}
	writeJSON(w, events)
}

func (h *DataHandler) InsertEvent(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	var row storage.EventRow
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	row.ProfileID = profileID

	if err := h.store.InsertEvent(r.Context(), row); err != nil {
		log.Printf("Error inserting event: %v", err)
		http.Error(w, "Failed to insert event", http.StatusInternalServerError)
		return
	}

	h.notify(r, profileID, storage.TableEvents, storage.ChangeInsert, row, nil)
	writeJSON(w, map[string]any{"status": "success", "id": row.ID})
}

func (h *DataHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	var row storage.EventRow
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	row.ID = id
	row.ProfileID = profileID

	old, err := h.store.GetEvent(r.Context(), profileID, id)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	if err := h.store.UpdateEvent(r.Context(), row); err != nil {
		log.Printf("Error updating event: %v", err)
		http.Error(w, "Failed to update event", http.StatusInternalServerError)
		return
	}

	h.notify(r, profileID, storage.TableEvents, storage.ChangeUpdate, row, old)
	writeJSON(w, map[string]string{"status": "success"})
}

func (h *DataHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}
	id := mux.Vars(r)["id"]

	old, err := h.store.GetEvent(r.Context(), profileID, id)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	if err := h.store.DeleteEvent(r.Context(), profileID, id); err != nil {
		log.Printf("Error deleting event: %v", err)
		http.Error(w, "Failed to delete event", http.StatusInternalServerError)
		return
	}

	h.notify(r, profileID, storage.TableEvents, storage.ChangeDelete, nil, old)
	writeJSON(w, map[string]string{"status": "success"})
}

// --- day notes ---

func (h *DataHandler) ListDayNotes(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	notes, err := h.store.ListDayNotes(r.Context(), profileID)
	if err != nil {
		log.Printf("Error listing day notes: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if notes == nil {
		notes = []board.DayNote{}
	}
	writeJSON(w, notes)
}

func (h *DataHandler) UpsertDayNote(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	var note board.DayNote
	if err := json.NewDecoder(r.Body).Decode(&note); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	note.ProfileID = profileID
	if note.Date == "" {
		http.Error(w, "Date is required", http.StatusBadRequest)
		return
	}

	if err := h.store.UpsertDayNote(r.Context(), note); err != nil {
		log.Printf("Error upserting day note: %v", err)
		http.Error(w, "Failed to save day note", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]string{"status": "success"})
}

// HandleWebSocket upgrades the HTTP connection to the realtime change feed.
// The session token travels in the query string because browsers cannot set
// headers on websocket dials.
func (h *DataHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	profileID, err := h.authService.VerifyJWT(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	clientID := r.URL.Query().Get("client_id")
	if clientID == "" {
		http.Error(w, "missing client_id", http.StatusBadRequest)
		return
	}

	// Upgrade HTTP connection to WebSocket
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins in development
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	// Register client in the hub. A profile may hold several sessions at
	// once (multiple tabs or devices); each gets its own client.
	client := &services.Client{
		Hub:       h.hub,
		Conn:      conn,
		Send:      make(chan []byte, 256),
		ProfileID: profileID,
		ClientID:  clientID,
	}

	h.hub.Register(client)

	// Start goroutines for reading and writing
	go client.WritePump()
	go client.ReadPump()
}
