package domain

import "fmt"

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// MessageContext is one role-tagged message of a chat conversation.
type MessageContext struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// TokenUsage is the provider's token accounting for one completion.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

func (u TokenUsage) String() string {
	return fmt.Sprintf("prompt_tokens=%d completion_tokens=%d total_tokens=%d",
		u.PromptTokens, u.CompletionTokens, u.TotalTokens)
}

// ChatResponse is the envelope returned by a chat completion call.
// Raw holds the provider SDK's own response value.
type ChatResponse struct {
	ID           string
	Model        string
	Content      string
	FinishReason string
	Usage        TokenUsage
	Raw          any
}
