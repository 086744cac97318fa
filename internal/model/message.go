package model

// MessageRole tags an entry in a chat log.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleHuman     MessageRole = "human"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleTool      MessageRole = "tool"
)

// Valid reports whether r is a known message role.
func (r MessageRole) Valid() bool {
	switch r {
	case MessageRoleSystem, MessageRoleHuman, MessageRoleAssistant, MessageRoleTool:
		return true
	default:
		return false
	}
}

// Message is one entry of a chat session log.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
	// ToolName is set on tool records only.
	ToolName string `json:"tool_name,omitempty"`
}
