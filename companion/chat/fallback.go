package chat

import (
	"strings"

	"github.com/kali2026000/my-ai-companion/companion/config"
)

// Rule maps trigger phrases to a canned reply.
type Rule struct {
	Name     string
	Triggers []string
	Reply    string
}

// Matches reports whether any trigger occurs in text, ignoring case.
func (r Rule) Matches(text string) bool {
	lower := strings.ToLower(text)
	for _, trigger := range r.Triggers {
		if trigger == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(trigger)) {
			return true
		}
	}
	return false
}

// Fallback is the ordered offline reply table. The first matching rule wins.
type Fallback struct {
	rules        []Rule
	defaultReply string
}

func NewFallback(rules []Rule, defaultReply string) *Fallback {
	if defaultReply == "" {
		defaultReply = config.DefaultFallbackReply
	}
	return &Fallback{rules: rules, defaultReply: defaultReply}
}

// Reply picks the reply for text and names the rule that produced it
// ("default" when nothing matched).
func (f *Fallback) Reply(text string) (reply, rule string) {
	for _, r := range f.rules {
		if r.Matches(text) {
			return r.Reply, r.Name
		}
	}
	return f.defaultReply, "default"
}

func (f *Fallback) Rules() []Rule {
	out := make([]Rule, len(f.rules))
	copy(out, f.rules)
	return out
}

// DefaultRules is the built-in table. Order matters: feelings come before
// greetings so "hello, I feel lonely" is answered as loneliness.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:     "lonely",
			Triggers: []string{"lonely", "alone"},
			Reply:    "I'm really glad you reached out. Feeling lonely is hard, but you're not alone right now. I'm here with you. What's been going on?",
		},
		{
			Name:     "sad",
			Triggers: []string{"sad", "depressed", "down today"},
			Reply:    "I'm sorry you're feeling this way. It's okay to not be okay. Do you want to tell me what's weighing on you?",
		},
		{
			Name:     "anxious",
			Triggers: []string{"anxious", "anxiety", "worried", "stressed", "nervous"},
			Reply:    "That sounds stressful. Let's slow down for a moment and take a deep breath together. What's worrying you most right now?",
		},
		{
			Name:     "angry",
			Triggers: []string{"angry", "frustrated", "annoyed", "mad at"},
			Reply:    "It makes sense to feel frustrated sometimes. I'm listening. What happened?",
		},
		{
			Name:     "tired",
			Triggers: []string{"tired", "exhausted", "can't sleep", "cannot sleep"},
			Reply:    "You sound worn out. Rest matters. Is something keeping you up, or has it just been a long day?",
		},
		{
			Name:     "thanks",
			Triggers: []string{"thank"},
			Reply:    "You're very welcome. I'm always happy to be here for you.",
		},
		{
			Name:     "greeting",
			Triggers: []string{"hello", "good morning", "good evening", "good afternoon"},
			Reply:    "Hello! It's good to hear from you. How are you feeling today?",
		},
		{
			Name:     "goodbye",
			Triggers: []string{"goodbye", "good night", "see you", "bye for now"},
			Reply:    "Take care of yourself. I'll be here whenever you want to talk again.",
		},
	}
}

// DefaultFallback returns the built-in table with the stock default reply.
func DefaultFallback() *Fallback {
	return NewFallback(DefaultRules(), config.DefaultFallbackReply)
}

// FallbackFromConfig uses the configured rules when there are any, the
// built-in table otherwise.
func FallbackFromConfig(cfg config.FallbackConfig) *Fallback {
	if len(cfg.Rules) == 0 {
		return NewFallback(DefaultRules(), cfg.DefaultReply)
	}

	rules := make([]Rule, 0, len(cfg.Rules))
	for _, r := range cfg.Rules {
		rules = append(rules, Rule{Name: r.Name, Triggers: r.Triggers, Reply: r.Reply})
	}
	return NewFallback(rules, cfg.DefaultReply)
}
