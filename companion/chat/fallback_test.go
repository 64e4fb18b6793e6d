package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kali2026000/my-ai-companion/companion/config"
)

func ruleReply(t *testing.T, name string) string {
	t.Helper()
	for _, r := range DefaultRules() {
		if r.Name == name {
			return r.Reply
		}
	}
	t.Fatalf("no built-in rule named %s", name)
	return ""
}

func TestFallback_DefaultRules(t *testing.T) {
	fallback := DefaultFallback()

	tests := []struct {
		input string
		rule  string
	}{
		{"I feel so lonely", "lonely"},
		{"Nobody is around, I'm ALONE tonight", "lonely"},
		{"i'm sad", "sad"},
		{"I've been so stressed about work", "anxious"},
		{"I'm frustrated with my roommate", "angry"},
		{"I can't sleep again", "tired"},
		{"Thanks for listening", "thanks"},
		{"Hello there", "greeting"},
		{"Good night!", "goodbye"},
		// Table order decides when several rules match
		{"hello, I feel lonely", "lonely"},
		{"thank you, goodbye", "thanks"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			reply, rule := fallback.Reply(tt.input)
			assert.Equal(t, tt.rule, rule)
			assert.Equal(t, ruleReply(t, tt.rule), reply)
		})
	}
}

func TestFallback_DefaultReply(t *testing.T) {
	reply, rule := DefaultFallback().Reply("what should I cook tonight?")

	assert.Equal(t, "default", rule)
	assert.Equal(t, config.DefaultFallbackReply, reply)
}

func TestFallback_Deterministic(t *testing.T) {
	fallback := DefaultFallback()
	first, _ := fallback.Reply("I feel so lonely")
	for i := 0; i < 10; i++ {
		reply, _ := fallback.Reply("I feel so lonely")
		assert.Equal(t, first, reply)
	}
}

func TestFallbackFromConfig(t *testing.T) {
	t.Run("custom rules replace the built-in table", func(t *testing.T) {
		fallback := FallbackFromConfig(config.FallbackConfig{
			DefaultReply: "still here",
			Rules: []config.FallbackRule{
				{Name: "rain", Triggers: []string{"Rain", "storm"}, Reply: "Rainy days can feel heavy."},
			},
		})

		reply, rule := fallback.Reply("the RAIN won't stop")
		assert.Equal(t, "rain", rule)
		assert.Equal(t, "Rainy days can feel heavy.", reply)

		reply, rule = fallback.Reply("I feel so lonely")
		assert.Equal(t, "default", rule)
		assert.Equal(t, "still here", reply)

		require.Len(t, fallback.Rules(), 1)
	})

	t.Run("no rules keeps the built-in table", func(t *testing.T) {
		fallback := FallbackFromConfig(config.FallbackConfig{})

		assert.Len(t, fallback.Rules(), len(DefaultRules()))
		reply, _ := fallback.Reply("nothing matches here")
		assert.Equal(t, config.DefaultFallbackReply, reply)
	})
}

func TestRule_MatchesIgnoresEmptyTriggers(t *testing.T) {
	rule := Rule{Name: "x", Triggers: []string{""}, Reply: "y"}
	assert.False(t, rule.Matches("anything"))
}
