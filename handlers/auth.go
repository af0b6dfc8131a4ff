package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/pastelflow/pastelflow/board"
	"github.com/pastelflow/pastelflow/database"
	"github.com/pastelflow/pastelflow/services"
	"github.com/pastelflow/pastelflow/storage"
)

// AuthHandler handles profile and session endpoints
type AuthHandler struct {
	authService *services.AuthService
	store       *database.Store
}

func NewAuthHandler(authService *services.AuthService, store *database.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		store:       store,
	}
}

// profileSummary is the public shape of a profile: the PIN itself never
// leaves the server, only whether one is set.
type profileSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	HasPIN bool   `json:"hasPin"`
}

// ListProfiles returns the profiles shown on the access gate.
func (h *AuthHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.store.ListProfiles(r.Context())
	if err != nil {
		log.Printf("Error listing profiles: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	summaries := make([]profileSummary, 0, len(profiles))
	for _, p := range profiles {
		summaries = append(summaries, profileSummary{
			ID:     p.ID,
			Name:   p.Name,
			Avatar: p.Avatar,
			HasPIN: p.PIN != "",
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summaries)
}

// CreateProfile handles the profile-creation flow. The client proposes the id.
func (h *AuthHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
		PIN    string `json:"pin"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Name) == "" {
		http.Error(w, "Profile name is required", http.StatusBadRequest)
		return
	}
	if req.PIN != "" && len(req.PIN) != 4 {
		http.Error(w, "PIN must be 4 digits", http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		req.ID = board.NewID()
	}

	profile := board.Profile{ID: req.ID, Name: req.Name, Avatar: req.Avatar, PIN: req.PIN}
	if err := h.store.CreateProfile(r.Context(), profile); err != nil {
		log.Printf("Error creating profile: %v", err)
		http.Error(w, "Failed to create profile", http.StatusInternalServerError)
		return
	}

	token, err := h.authService.CreateJWT(profile.ID)
	if err != nil {
		log.Printf("Error creating JWT: %v", err)
		http.Error(w, "Authentication error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "success",
		"token":   token,
		"profile": profileSummary{ID: profile.ID, Name: profile.Name, Avatar: profile.Avatar, HasPIN: profile.PIN != ""},
	})
}

// Login checks a profile's PIN gate and issues a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProfileID string `json:"profile_id"`
		PIN       string `json:"pin"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	profile, err := h.store.GetProfile(r.Context(), req.ProfileID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error loading profile: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	if err := h.authService.CheckPIN(profile, req.PIN); err != nil {
		http.Error(w, "Incorrect PIN", http.StatusUnauthorized)
		return
	}

	token, err := h.authService.CreateJWT(profile.ID)
	if err != nil {
		log.Printf("Error creating JWT: %v", err)
		http.Error(w, "Authentication error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "success",
		"token":    token,
		"profile":  profileSummary{ID: profile.ID, Name: profile.Name, Avatar: profile.Avatar, HasPIN: profile.PIN != ""},
		"settings": profile.Settings,
	})
}

// VerifyToken checks if a session token is valid
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	// Get token from Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		http.Error(w, "Missing authorization header", http.StatusUnauthorized)
		return
	}

	// Extract token from Bearer format
	authParts := strings.Split(authHeader, " ")
	if len(authParts) != 2 || authParts[0] != "Bearer" {
		http.Error(w, "Invalid authorization format", http.StatusUnauthorized)
		return
	}

	profileID, err := h.authService.VerifyJWT(authParts[1])
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"profile_id": profileID,
		"status":     "valid",
	})
}

// SaveSettings shallow-merges a widget-settings patch into the profile.
func (h *AuthHandler) SaveSettings(w http.ResponseWriter, r *http.Request) {
	profileID, ok := profileFromContext(r)
	if !ok {
		http.Error(w, "profile not found", http.StatusUnauthorized)
		return
	}

	var patch board.ProfileSettings
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	profile, err := h.store.GetProfile(r.Context(), profileID)
	if err != nil {
		log.Printf("Error loading profile: %v", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	merged := board.MergeSettings(profile.Settings, patch)
	if err := h.store.SaveSettings(r.Context(), profileID, merged); err != nil {
		log.Printf("Error saving settings: %v", err)
		http.Error(w, "Failed to save settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":   "success",
		"settings": merged,
	})
}
