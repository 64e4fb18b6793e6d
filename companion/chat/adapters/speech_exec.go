package adapters

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// ExecSpeaker pipes replies to a local text-to-speech command such as
// espeak or say. The text is passed as the final argument.
type ExecSpeaker struct {
	command string
	args    []string
}

// NewExecSpeaker resolves command on PATH.
func NewExecSpeaker(command string, args ...string) (*ExecSpeaker, error) {
	path, err := exec.LookPath(command)
	if err != nil {
		return nil, fmt.Errorf("speech command %q not found: %w", command, err)
	}
	return &ExecSpeaker{command: path, args: args}, nil
}

// Speak blocks until the command exits or ctx is done.
func (s *ExecSpeaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	args := append(append([]string{}, s.args...), text)
	out, err := exec.CommandContext(ctx, s.command, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("speech command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Ensure ExecSpeaker implements the Speaker interface.
var _ ports.Speaker = (*ExecSpeaker)(nil)
