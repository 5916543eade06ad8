package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity. ID is the storage key while
// Identity is the stable identifier exposed to clients.
type User struct {
	ID           int64      `gorm:"column:id;primaryKey;autoIncrement"`
	Identity     uuid.UUID  `gorm:"column:identity;type:uuid;not null;uniqueIndex"`
	Handle       string     `gorm:"column:handle;type:text;not null;uniqueIndex"`
	Account      string     `gorm:"column:account;type:text;not null;uniqueIndex"`
	Email        string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	IsStaff      bool       `gorm:"column:is_staff;not null;default:false"`
	IsSuperuser  bool       `gorm:"column:is_superuser;not null;default:false"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
