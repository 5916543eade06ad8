package enums

import "fmt"

// MessageRole identifies the speaker of a chat message.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)

var validMessageRoles = []MessageRole{
	MessageRoleSystem,
	MessageRoleUser,
	MessageRoleAssistant,
}

// String implements fmt.Stringer.
func (r MessageRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known MessageRole.
func (r MessageRole) IsValid() bool {
	for _, candidate := range validMessageRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseMessageRole converts raw input into a MessageRole.
func ParseMessageRole(value string) (MessageRole, error) {
	for _, candidate := range validMessageRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid message role %q", value)
}
