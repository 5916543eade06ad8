package conversations

import (
	"time"

	"github.com/google/uuid"

	"github.com/zatgpt/zatgpt-backend/pkg/db/models"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
)

const dateLayout = "2006-01-02"

// CreatedSession is returned when a session is opened.
type CreatedSession struct {
	SessionID uuid.UUID `json:"session_id"`
}

// SessionSummary is one entry of the caller's session list.
type SessionSummary struct {
	SessionID uuid.UUID `json:"session_id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"start_time"`
	Date      string    `json:"date"`
}

// MessageDTO is one entry of a session transcript.
type MessageDTO struct {
	Role      enums.MessageRole `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
}

// SendMessageRequest is the payload of the send endpoints. SessionID is only
// read from the body on the legacy route.
type SendMessageRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Content   string `json:"content"`
}

// Reply is the assistant's answer to one send.
type Reply struct {
	AssistantMessage string    `json:"assistant_message"`
	SessionID        uuid.UUID `json:"session_id"`
}

func messagesFromModels(list []models.Message) []MessageDTO {
	out := make([]MessageDTO, 0, len(list))
	for _, m := range list {
		out = append(out, MessageDTO{Role: m.Role, Content: m.Content, Timestamp: m.CreatedAt.UTC()})
	}
	return out
}
