package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/pastelflow/pastelflow/services"
)

type contextKey string

const profileContextKey contextKey = "profile_id"

// clientIDHeader carries the caller session's self-chosen id so broadcasts
// can exclude the originating session.
const clientIDHeader = "X-Client-ID"

type AuthMiddleware struct {
	authService *services.AuthService
}

func NewAuthMiddleware(authService *services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "missing authorization header", http.StatusUnauthorized)
			return
		}

		// Extract token from Bearer format
		authParts := strings.Split(authHeader, " ")
		if len(authParts) != 2 || authParts[0] != "Bearer" {
			http.Error(w, "invalid authorization format", http.StatusUnauthorized)
			return
		}

		tokenString := authParts[1]

		// Verify token
		profileID, err := m.authService.VerifyJWT(tokenString)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), profileContextKey, profileID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func profileFromContext(r *http.Request) (string, bool) {
	profileID, ok := r.Context().Value(profileContextKey).(string)
	return profileID, ok
}
