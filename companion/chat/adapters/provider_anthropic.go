package adapters

import (
	"context"
	"errors"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// AnthropicProvider calls the Messages endpoint. Retries are disabled: each
// Complete is exactly one HTTP attempt.
type AnthropicProvider struct {
	client anthropic.Client
}

// NewAnthropicProvider creates a provider for baseURL. apiVersion overrides the
// anthropic-version header; extra options are appended last (tests inject an
// http.Client this way).
func NewAnthropicProvider(baseURL, apiVersion string, opts ...option.RequestOption) *AnthropicProvider {
	options := []option.RequestOption{
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		options = append(options, option.WithBaseURL(baseURL))
	}
	if apiVersion != "" {
		options = append(options, option.WithHeader("anthropic-version", apiVersion))
	}
	options = append(options, opts...)

	return &AnthropicProvider{
		client: anthropic.NewClient(options...),
	}
}

// Complete sends the windowed history and returns the first text block.
func (p *AnthropicProvider) Complete(ctx context.Context, credential string, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	messages := make([]anthropic.MessageParam, 0, len(in.Messages))
	for _, msg := range in.Messages {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.Model),
		MaxTokens: int64(opts.MaxNewTokens),
		Messages:  messages,
	}
	if in.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: in.System}}
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(credential)}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}

	msg, err := p.client.Messages.New(ctx, params, reqOpts...)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return ports.Completion{}, &ports.RemoteError{
				StatusCode: apiErr.StatusCode,
				Detail:     errorMessage(apiErr.RawJSON()),
				Err:        err,
			}
		}
		return ports.Completion{}, &ports.RemoteError{Err: err}
	}

	if len(msg.Content) == 0 || msg.Content[0].Text == "" {
		return ports.Completion{}, &ports.RemoteError{
			StatusCode: http.StatusOK,
			Detail:     "response has no text content",
		}
	}

	return ports.Completion{
		Text: msg.Content[0].Text,
		Usage: &ports.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

// errorMessage pulls error.message out of an error body, if there is one.
func errorMessage(body string) string {
	if body == "" || !gjson.Valid(body) {
		return ""
	}
	return gjson.Get(body, "error.message").String()
}

// Ensure AnthropicProvider implements the Provider interface.
var _ ports.Provider = (*AnthropicProvider)(nil)
