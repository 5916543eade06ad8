package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/zatgpt/zatgpt-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	Identity    uuid.UUID  `json:"uuid"`
	Handle      string     `json:"username"`
	Account     string     `json:"account"`
	Email       string     `json:"email"`
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ProfileDTO is what a caller sees about themselves.
type ProfileDTO struct {
	Handle string `json:"username"`
	Email  string `json:"email"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Handle       string
	Account      string
	Email        string
	PasswordHash string
	IsStaff      bool
	IsSuperuser  bool
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		Identity:    u.Identity,
		Handle:      u.Handle,
		Account:     u.Account,
		Email:       u.Email,
		IsActive:    u.IsActive,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func FromModels(list []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

func (c CreateUserDTO) ToModel() *models.User {
	now := time.Now().UTC()
	return &models.User{
		Identity:     uuid.New(),
		Handle:       c.Handle,
		Account:      c.Account,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		IsActive:     true,
		IsStaff:      c.IsStaff,
		IsSuperuser:  c.IsSuperuser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
