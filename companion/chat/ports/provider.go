package chatports

import (
	"context"
	"fmt"
	"time"
)

// PromptMessage is one role-tagged message in wire vocabulary ("user" | "assistant").
type PromptMessage struct {
	Role    string
	Content string
}

// PromptInput aggregates everything the provider needs to produce a completion.
type PromptInput struct {
	System   string            // persona/behavior instruction, omitted when empty
	Messages []PromptMessage   // ordered chat history (already windowed)
	Meta     map[string]string // lightweight metadata for tracing
}

// Options controls the request envelope.
type Options struct {
	Model        string
	MaxNewTokens int
	// Timeout applies to the provider call only.
	Timeout time.Duration
}

// Usage captures token accounting for telemetry.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Completion is the provider's response.
type Completion struct {
	Text  string
	Usage *Usage // optional usage information
}

// Provider is the abstraction for the remote chat endpoint. The credential is
// passed per call because it can be revoked between calls.
type Provider interface {
	Complete(ctx context.Context, credential string, in PromptInput, opts Options) (Completion, error)
}

// RemoteError reports a failed call. StatusCode is 0 when no HTTP response
// was received (network error, timeout).
type RemoteError struct {
	StatusCode int
	Detail     string // error.message from the response body, when present
	Err        error
}

func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("remote call failed (status %d)", e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RemoteError) Unwrap() error { return e.Err }
