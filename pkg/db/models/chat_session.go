package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession is a conversation thread owned by exactly one user.
type ChatSession struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;not null"`
}

func (ChatSession) TableName() string {
	return "chat_sessions"
}
