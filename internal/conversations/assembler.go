package conversations

import (
	"fmt"

	"github.com/zatgpt/zatgpt-backend/pkg/db/models"
	"github.com/zatgpt/zatgpt-backend/pkg/llm"
)

const sessionLabelLayout = "2006-01-02 15:04:05"

// buildPayload projects the ordered log into the upstream request. The whole
// history is sent as is.
func buildPayload(history []models.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// sessionTitle is the first user message cut to limit runes, or a label
// derived from the creation time.
func sessionTitle(session models.ChatSession, firstUser *models.Message, limit int) string {
	if firstUser == nil {
		return fmt.Sprintf("Session from %s", session.CreatedAt.UTC().Format(sessionLabelLayout))
	}
	runes := []rune(firstUser.Content)
	if limit > 0 && len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes)
}
