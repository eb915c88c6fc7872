package interfaces

import (
	"context"
)

// LLMMode represents the operational mode of the LLM service
type LLMMode string

const (
	// LLMModeCloud indicates the service uses cloud-based LLM APIs
	LLMModeCloud LLMMode = "cloud"
)

// Message roles used across the pipeline. Provider adapters map "analyst" to the
// user side of the conversation and "expert" to the assistant side.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleAnalyst   = "analyst"
	RoleExpert    = "expert"
)

// Message represents a single message in a chat conversation
type Message struct {
	// Role identifies the message sender: system, user, assistant, analyst or expert
	Role string `json:"role"`

	// Name optionally identifies the speaker (the analyst's name for interview questions)
	Name string `json:"name,omitempty"`

	// Content contains the text content of the message
	Content string `json:"content"`
}

// LLMService defines the language-model contract consumed by the pipeline:
// invoke(orderedMessages) -> message{content}. No streaming.
type LLMService interface {
	// Chat generates a completion for the ordered conversation.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - messages: Conversation history in chronological order
	//
	// Returns:
	//   - string: Generated assistant response
	//   - error: Provider error if the completion fails
	Chat(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the provider is reachable and authenticated.
	HealthCheck(ctx context.Context) error

	// GetMode returns the current operational mode of the LLM service.
	GetMode() LLMMode

	// Close releases resources held by the provider clients.
	Close() error
}
