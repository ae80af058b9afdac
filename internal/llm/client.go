// Package llm abstracts the external language model. Everything above this
// package treats the model as a text-in/text-out collaborator; all behavioral
// guarantees live in the deterministic layers around it.
package llm

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is an internal message representation that can include system
// prompts.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type Request struct {
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

type Response struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// Client is implemented by concrete model backends and by test fakes.
type Client interface {
	Complete(ctx context.Context, req Request) (Response, error)
}
