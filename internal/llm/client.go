package llm

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	System      string
	History     []ChatMessage
	UserMessage string
	MaxTokens   int32
}

// Client is the opaque text-generation capability. Implementations may
// fail (timeout, provider error); callers decide whether that is fatal.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
