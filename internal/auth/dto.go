package auth

import (
	"github.com/google/uuid"

	"github.com/zatgpt/zatgpt-backend/internal/users"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
)

const loginSuccessMessage = "Login successful!"

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the token pair issued by a successful login.
type LoginResponse struct {
	Message      string         `json:"message"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
}

// RefreshRequest exchanges a (possibly expired) access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// TokenPair is returned by refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterRequest is the self-service signup payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Account  string `json:"account" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// CreatePrivilegedRequest is the payload for creating admins and superadmins.
// Account defaults to the username when omitted.
type CreatePrivilegedRequest struct {
	Username string `json:"username" validate:"required,max=150"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Account  string `json:"account,omitempty" validate:"omitempty,max=150"`
}

// UpdatePermissionsRequest targets a user by identity with the supplied flags.
type UpdatePermissionsRequest struct {
	Identity uuid.UUID
	Changes  users.PermissionChanges
}

// AdminCheckResponse reports the caller's administrative tier.
type AdminCheckResponse struct {
	IsAdmin bool            `json:"is_admin"`
	Role    enums.AdminRole `json:"role"`
}
