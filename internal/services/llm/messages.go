package llm

import (
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/ternarybob/roundtable/internal/interfaces"
	"google.golang.org/genai"
)

// isUserSide reports whether a pipeline role is sent as the user side of the conversation.
// Analyst questions are user turns; expert answers are assistant turns.
func isUserSide(role string) bool {
	switch role {
	case interfaces.RoleAssistant, interfaces.RoleExpert:
		return false
	default:
		return true
	}
}

// validateMessages checks the conversation has content and at least one user-side message
func validateMessages(messages []interfaces.Message) error {
	if len(messages) == 0 {
		return fmt.Errorf("messages cannot be empty")
	}

	for _, msg := range messages {
		if msg.Role != interfaces.RoleSystem && isUserSide(msg.Role) {
			return nil
		}
	}
	return fmt.Errorf("at least one message must have a user-side role")
}

// convertMessagesToClaude converts pipeline messages to Claude's format.
// The first system message becomes the system prompt; later ones are dropped.
func convertMessagesToClaude(messages []interfaces.Message) ([]anthropic.MessageParam, string, error) {
	if err := validateMessages(messages); err != nil {
		return nil, "", err
	}

	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == interfaces.RoleSystem {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		if isUserSide(msg.Role) {
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		} else {
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	return claudeMessages, systemText, nil
}

// convertMessagesToGemini converts pipeline messages to Gemini contents
func convertMessagesToGemini(messages []interfaces.Message) ([]*genai.Content, string, error) {
	if err := validateMessages(messages); err != nil {
		return nil, "", err
	}

	contents := make([]*genai.Content, 0, len(messages))
	var systemText string
	for _, msg := range messages {
		if msg.Role == interfaces.RoleSystem {
			if systemText == "" {
				systemText = msg.Content
			}
			continue
		}

		geminiRole := genai.RoleUser
		if !isUserSide(msg.Role) {
			geminiRole = genai.RoleModel
		}

		contents = append(contents, &genai.Content{
			Role:  geminiRole,
			Parts: []*genai.Part{genai.NewPartFromText(msg.Content)},
		})
	}

	return contents, systemText, nil
}
