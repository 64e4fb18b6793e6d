package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// TestPromptBuilder_Build tests prompt construction.
func TestPromptBuilder_Build(t *testing.T) {
	builder := NewPromptBuilder()

	window := []Turn{
		{Role: RoleUser, Content: "Hello"},
		{Role: RoleAssistant, Content: "Hi there"},
		{Role: RoleUser, Content: "How are you?"},
	}

	input := builder.Build("  You are kind.  ", window, map[string]string{"test": "value"})

	assert.Equal(t, "You are kind.", input.System)
	assert.Equal(t, []ports.PromptMessage{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
		{Role: "user", Content: "How are you?"},
	}, input.Messages)
	assert.Equal(t, "value", input.Meta["test"])
}

func TestPromptBuilder_Normalizes(t *testing.T) {
	builder := NewPromptBuilder()

	window := []Turn{
		{Role: RoleAssistant, Content: "answer from a trimmed window"},
		{Role: "assistant", Content: "another leading reply"},
		{Role: RoleUser, Content: "line one\r\nline two  "},
		{Role: legacyRoleAI, Content: "legacy reply"},
		{Role: RoleUser, Content: "   "},
		{Role: RoleUser, Content: "last"},
	}

	input := builder.Build("", window, nil)

	assert.Empty(t, input.System)
	assert.Equal(t, []ports.PromptMessage{
		{Role: "user", Content: "line one\nline two"},
		{Role: "assistant", Content: "legacy reply"},
		{Role: "user", Content: "last"},
	}, input.Messages)
}

func TestPromptBuilder_DoesNotMutateWindow(t *testing.T) {
	window := []Turn{{Role: RoleUser, Content: "  padded  "}}

	NewPromptBuilder().Build("", window, nil)

	assert.Equal(t, "  padded  ", window[0].Content)
}
