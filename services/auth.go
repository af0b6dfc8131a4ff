package services

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pastelflow/pastelflow/board"
)

// ErrWrongPIN is returned when a profile's access gate rejects the attempt.
var ErrWrongPIN = errors.New("incorrect PIN")

type AuthService struct {
	jwtSecret []byte
}

func NewAuthService() *AuthService {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-default-secret-key-change-in-production"
	}

	return &AuthService{
		jwtSecret: []byte(jwtSecret),
	}
}

// CheckPIN compares the submitted PIN against the profile's. Profiles with no
// PIN are ungated and always pass.
func (s *AuthService) CheckPIN(p board.Profile, pin string) error {
	if p.PIN == "" {
		return nil
	}
	if p.PIN != pin {
		return ErrWrongPIN
	}
	return nil
}

// CreateJWT generates a session token for a profile.
func (s *AuthService) CreateJWT(profileID string) (string, error) {
	// Create token with claims
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"profile_id": profileID,
		"exp":        time.Now().Add(time.Hour * 24 * 7).Unix(), // 7 days
	})

	// Sign the token
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyJWT verifies a session token and returns the profile id.
func (s *AuthService) VerifyJWT(tokenString string) (string, error) {
	// Parse the token
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	// Check if token is valid
	if !token.Valid {
		return "", errors.New("invalid token")
	}

	// Extract claims
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid token claims")
	}

	// Get profile id from claims
	profileID, ok := claims["profile_id"].(string)
	if !ok {
		return "", errors.New("profile_id claim missing")
	}

	return profileID, nil
}
