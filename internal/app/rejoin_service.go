package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
)

// RejoinService signs short-lived grants that let a disconnected player
// prove they belong to a room when they come back on a new session.
type RejoinService struct {
	secret string
	issuer string
	ttl    time.Duration
}

// NewRejoinService builds a RejoinService. A zero ttl falls back to fifteen
// minutes, comfortably past the in-room reconnect grace.
func NewRejoinService(secret, issuer string, ttl time.Duration) *RejoinService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &RejoinService{secret: secret, issuer: issuer, ttl: ttl}
}

// GenerateToken issues a grant binding userID to roomID.
func (s *RejoinService) GenerateToken(roomID, userID string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("rejoin service is nil")
	}
	if roomID == "" || userID == "" {
		return "", fmt.Errorf("room and user are required")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("rejoin config is incomplete")
	}

	claims := jwt.MapClaims{
		"iss":  s.issuer,
		"sub":  userID,
		"room": roomID,
		"exp":  time.Now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}

// VerifyToken checks a grant and returns the room and user it was issued
// for. Expired or tampered tokens fail in jwt.Parse.
func (s *RejoinService) VerifyToken(tokenString string) (roomID, userID string, err error) {
	if s == nil || s.secret == "" {
		return "", "", fmt.Errorf("rejoin config is incomplete")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return "", "", fmt.Errorf("invalid rejoin token: %w", err)
	}
	if !token.Valid {
		return "", "", fmt.Errorf("invalid rejoin token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid rejoin claims")
	}
	if iss, _ := claims["iss"].(string); iss != s.issuer {
		return "", "", fmt.Errorf("rejoin token issuer mismatch")
	}
	roomID, _ = claims["room"].(string)
	userID, _ = claims["sub"].(string)
	if roomID == "" || userID == "" {
		return "", "", fmt.Errorf("rejoin token is missing claims")
	}
	return roomID, userID, nil
}
