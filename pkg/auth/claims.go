package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID uuid.UUID
	Handle string
	JTI    string
}

// AccessTokenClaims represents the typed JWT issued to clients. Role flags are
// deliberately absent: they are re-read from the identity store per request.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Handle string    `json:"handle,omitempty"`
	jwt.RegisteredClaims
}
