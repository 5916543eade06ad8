package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zatgpt/zatgpt-backend/pkg/enums"
)

// Message is one immutable turn of a chat session.
type Message struct {
	ID        int64             `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID uuid.UUID         `gorm:"column:session_id;type:uuid;not null;index:idx_messages_session_order,priority:1"`
	Role      enums.MessageRole `gorm:"column:role;type:text;not null"`
	Content   string            `gorm:"column:content;type:text;not null"`
	CreatedAt time.Time         `gorm:"column:created_at;not null;index:idx_messages_session_order,priority:2"`
}
