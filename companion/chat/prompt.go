package chat

import (
	"strings"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// PromptBuilder turns a window of turns into a provider request.
type PromptBuilder struct{}

func NewPromptBuilder() *PromptBuilder { return &PromptBuilder{} }

// Build maps roles to wire vocabulary and normalizes whitespace. Empty turns
// are skipped and leading assistant turns dropped, since the endpoint wants
// the history to open with a user message.
func (b *PromptBuilder) Build(system string, window []Turn, meta map[string]string) ports.PromptInput {
	norm := func(s string) string { return strings.TrimSpace(strings.ReplaceAll(s, "\r\n", "\n")) }

	messages := make([]ports.PromptMessage, 0, len(window))
	for _, turn := range window {
		content := norm(turn.Content)
		if content == "" {
			continue
		}
		role := normalizeRole(turn.Role)
		if len(messages) == 0 && role == RoleAssistant {
			continue
		}
		messages = append(messages, ports.PromptMessage{Role: string(role), Content: content})
	}

	return ports.PromptInput{
		System:   norm(system),
		Messages: messages,
		Meta:     meta,
	}
}
