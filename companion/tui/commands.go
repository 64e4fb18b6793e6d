package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/armon/go-radix"
)

// Slash commands typed into the chat input.
const (
	commandClear  = "clear"
	commandExport = "export"
	commandKey    = "key"
	commandHelp   = "help"
	commandQuit   = "quit"
)

var commandHelpText = map[string]string{
	commandClear:  "erase the conversation (asks to confirm)",
	commandExport: "save the conversation as JSON",
	commandKey:    "set the API key",
	commandHelp:   "list commands",
	commandQuit:   "leave the chat",
}

// commandTable resolves a command from any unambiguous prefix, so /c, /cl
// and /clear all clear the conversation.
type commandTable struct {
	tree *radix.Tree
}

func newCommandTable() *commandTable {
	tree := radix.New()
	for name, help := range commandHelpText {
		tree.Insert(name, help)
	}
	return &commandTable{tree: tree}
}

// parseCommand splits "/name args" into its parts. ok is false when input
// is not a slash command.
func parseCommand(input string) (name, args string, ok bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return "", "", false
	}
	name, args, _ = strings.Cut(input[1:], " ")
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// Resolve returns the full command name for prefix.
func (t *commandTable) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("empty command, try /help")
	}
	if _, ok := t.tree.Get(prefix); ok {
		return prefix, nil
	}

	var matches []string
	t.tree.WalkPrefix(prefix, func(name string, _ interface{}) bool {
		matches = append(matches, name)
		return false
	})

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("unknown command /%s, try /help", prefix)
	case 1:
		return matches[0], nil
	default:
		sort.Strings(matches)
		return "", fmt.Errorf("/%s is ambiguous: /%s", prefix, strings.Join(matches, ", /"))
	}
}

// Help lists every command in name order.
func (t *commandTable) Help() string {
	var lines []string
	t.tree.Walk(func(name string, help interface{}) bool {
		lines = append(lines, fmt.Sprintf("/%-7s %s", name, help))
		return false
	})
	return strings.Join(lines, "\n")
}
