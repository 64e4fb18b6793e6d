package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
	"github.com/kali2026000/my-ai-companion/companion/config"
)

var (
	// ErrBusy is returned when a submit arrives while a reply is in progress.
	// Nothing is appended.
	ErrBusy = errors.New("a reply is already in progress")

	ErrEmptyMessage = errors.New("message is empty")
)

// persistTimeout bounds the snapshot write that closes an exchange. The write
// outlives the caller's context so a delivered reply is never dropped.
const persistTimeout = 5 * time.Second

// Policy controls request shaping.
type Policy struct {
	Model          string
	MaxTokens      int
	SystemPrompt   string
	ContextWindow  int           // turns sent as context, including the new user turn
	RequestTimeout time.Duration // deadline for the single provider call
}

// DefaultPolicy returns sensible defaults.
func DefaultPolicy() *Policy {
	return &Policy{
		Model:          "claude-sonnet-4-20250514",
		MaxTokens:      1024,
		SystemPrompt:   config.DefaultSystemPrompt,
		ContextWindow:  10,
		RequestTimeout: 30 * time.Second,
	}
}

func PolicyFromConfig(c config.ChatConfig) *Policy {
	return &Policy{
		Model:          c.Model,
		MaxTokens:      c.MaxTokens,
		SystemPrompt:   c.SystemPrompt,
		ContextWindow:  c.ContextWindow,
		RequestTimeout: c.RequestTimeout,
	}
}

// Source tells where an assistant turn came from.
type Source string

const (
	SourceRemote   Source = "remote"
	SourceFallback Source = "fallback"
)

// Result is the outcome of one exchange.
type Result struct {
	ExchangeID string
	Turn       Turn
	Source     Source
	Failure    *Failure // nil when the remote endpoint answered
	Usage      *ports.Usage
}

// Orchestrator produces the assistant turn for each user submit, either
// from the remote provider or from the fallback table. Every accepted
// submit yields exactly one assistant turn.
type Orchestrator struct {
	store    *ConversationStore
	vault    *CredentialVault
	provider ports.Provider
	builder  *PromptBuilder
	limiter  ports.RateLimiter
	tracer   ports.Tracer
	speaker  ports.Speaker
	logger   zerolog.Logger

	policy   atomic.Pointer[Policy]
	fallback atomic.Pointer[Fallback]
	busy     atomic.Bool

	mu              sync.RWMutex
	turnObservers   []func(Turn)
	noticeObservers []func(Notice)

	speech conc.WaitGroup
}

// NewOrchestrator wires an orchestrator. limiter, tracer and speaker may be
// nil, in which case they do nothing.
func NewOrchestrator(
	store *ConversationStore,
	vault *CredentialVault,
	provider ports.Provider,
	limiter ports.RateLimiter,
	tracer ports.Tracer,
	speaker ports.Speaker,
	fallback *Fallback,
	policy *Policy,
	logger zerolog.Logger,
) *Orchestrator {
	if limiter == nil {
		limiter = &noOpRateLimiter{}
	}
	if tracer == nil {
		tracer = &noOpTracer{}
	}
	if speaker == nil {
		speaker = &noOpSpeaker{}
	}
	if fallback == nil {
		fallback = DefaultFallback()
	}
	if policy == nil {
		policy = DefaultPolicy()
	}

	o := &Orchestrator{
		store:    store,
		vault:    vault,
		provider: provider,
		builder:  NewPromptBuilder(),
		limiter:  limiter,
		tracer:   tracer,
		speaker:  speaker,
		logger:   logger.With().Str("component", "orchestrator").Logger(),
	}
	o.policy.Store(policy)
	o.fallback.Store(fallback)
	return o
}

// IsBusy is true from the start of an accepted submit until its assistant
// turn is appended.
func (o *Orchestrator) IsBusy() bool { return o.busy.Load() }

// OnTurn registers fn to receive every appended turn, user and assistant.
func (o *Orchestrator) OnTurn(fn func(Turn)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.turnObservers = append(o.turnObservers, fn)
}

// OnNotice registers fn to receive failure notices.
func (o *Orchestrator) OnNotice(fn func(Notice)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.noticeObservers = append(o.noticeObservers, fn)
}

// UpdatePolicy swaps the request policy, used on config reload.
func (o *Orchestrator) UpdatePolicy(p *Policy) {
	if p != nil {
		o.policy.Store(p)
	}
}

// UpdateFallback swaps the offline reply table.
func (o *Orchestrator) UpdateFallback(f *Fallback) {
	if f != nil {
		o.fallback.Store(f)
	}
}

func (o *Orchestrator) Policy() Policy { return *o.policy.Load() }

// Turns returns a copy of the conversation log.
func (o *Orchestrator) Turns() []Turn { return o.store.Turns() }

// Submit handles one user message end to end.
func (o *Orchestrator) Submit(ctx context.Context, text string) (*Result, error) {
	text = strings.ToValidUTF8(strings.TrimSpace(text), "\uFFFD")
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !o.busy.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}

	policy := o.policy.Load()
	exchangeID := uuid.NewString()

	ctx, finish := o.tracer.StartSpan(ctx, "submit", map[string]any{
		"exchange_id": exchangeID,
		"model":       policy.Model,
	})

	user := UserTurn(text)
	o.store.Append(user)
	o.emitTurn(user)

	result := o.respond(ctx, text, policy)
	result.ExchangeID = exchangeID

	o.store.Append(result.Turn)
	o.busy.Store(false)

	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	err := o.store.Persist(persistCtx)
	cancel()
	if err != nil {
		o.logger.Error().Err(err).Str("exchange_id", exchangeID).Msg("Failed to persist conversation")
		o.emitNotice((&Failure{Kind: StorageUnavailable, Detail: err.Error(), Err: err}).Notice())
	}

	if result.Failure != nil && result.Failure.Kind != CredentialMissing {
		o.emitNotice(result.Failure.Notice())
	}
	o.emitTurn(result.Turn)
	o.speak(ctx, result.Turn.Content)

	o.tracer.Event(ctx, "exchange_complete", map[string]any{
		"source": string(result.Source),
		"turns":  o.store.Len(),
	})
	finish(nil)

	return result, nil
}

// respond decides between the remote call and the fallback table.
func (o *Orchestrator) respond(ctx context.Context, text string, policy *Policy) *Result {
	credential, ok, err := o.vault.Get(ctx)
	if err != nil {
		o.logger.Warn().Err(err).Msg("Credential slot unreadable, replying offline")
	}
	if !ok {
		return o.fallbackResult(ctx, text, &Failure{Kind: CredentialMissing})
	}

	if err := o.limiter.Acquire(ctx, "submit"); err != nil {
		return o.fallbackResult(ctx, text, &Failure{Kind: RateLimited, Detail: err.Error(), Err: err})
	}

	window := o.store.RecentWindow(policy.ContextWindow)
	prompt := o.builder.Build(policy.SystemPrompt, window, map[string]string{
		"window": fmt.Sprintf("%d", len(window)),
	})

	completion, err := o.call(ctx, credential, prompt, policy)
	if err == nil && strings.TrimSpace(completion.Text) == "" {
		err = &ports.RemoteError{Detail: "empty reply"}
	}
	if err != nil {
		failure := Classify(err)
		if failure.Kind == CredentialInvalid {
			if clearErr := o.vault.Clear(ctx); clearErr != nil {
				o.logger.Error().Err(clearErr).Msg("Failed to clear rejected credential")
			}
		}
		o.logger.Warn().
			Str("kind", string(failure.Kind)).
			Int("status", failure.StatusCode).
			Str("detail", Redact(failure.Detail)).
			Msg("Remote reply failed, using fallback")
		return o.fallbackResult(ctx, text, failure)
	}

	return &Result{
		Turn:   AssistantTurn(completion.Text),
		Source: SourceRemote,
		Usage:  completion.Usage,
	}
}

// call issues exactly one provider request under the policy timeout. A
// panicking provider counts as a failed call.
func (o *Orchestrator) call(ctx context.Context, credential string, in ports.PromptInput, policy *Policy) (completion ports.Completion, err error) {
	ctx, cancel := context.WithTimeout(ctx, policy.RequestTimeout)
	defer cancel()

	ctx, spanFinish := o.tracer.StartSpan(ctx, "provider_call", map[string]any{
		"messages": len(in.Messages),
	})
	defer func() { spanFinish(err) }()

	var catcher panics.Catcher
	catcher.Try(func() {
		completion, err = o.provider.Complete(ctx, credential, in, ports.Options{
			Model:        policy.Model,
			MaxNewTokens: policy.MaxTokens,
			Timeout:      policy.RequestTimeout,
		})
	})
	if recovered := catcher.Recovered(); recovered != nil {
		return ports.Completion{}, fmt.Errorf("provider panicked: %w", recovered.AsError())
	}
	return completion, err
}

func (o *Orchestrator) fallbackResult(ctx context.Context, text string, failure *Failure) *Result {
	reply, rule := o.fallback.Load().Reply(text)
	o.tracer.Event(ctx, "fallback", map[string]any{
		"rule": rule,
		"kind": string(failure.Kind),
	})
	return &Result{
		Turn:    AssistantTurn(reply),
		Source:  SourceFallback,
		Failure: failure,
	}
}

// Clear wipes the conversation and its persisted snapshot.
func (o *Orchestrator) Clear(ctx context.Context) error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.busy.Store(false)
	if err := o.store.Clear(ctx); err != nil {
		return err
	}
	o.logger.Info().Msg("Conversation cleared")
	return nil
}

// Export renders the conversation as an indented JSON document.
func (o *Orchestrator) Export() ([]byte, error) {
	return o.store.ExportSnapshot()
}

// Import replaces the conversation with a previously exported document.
func (o *Orchestrator) Import(ctx context.Context, data []byte) error {
	if !o.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.busy.Store(false)
	if err := o.store.ImportSnapshot(ctx, data); err != nil {
		return err
	}
	o.logger.Info().Int("turns", o.store.Len()).Msg("Conversation imported")
	return nil
}

// Wait blocks until queued speech playback has finished.
func (o *Orchestrator) Wait() {
	o.speech.Wait()
}

func (o *Orchestrator) speak(ctx context.Context, text string) {
	ctx = context.WithoutCancel(ctx)
	o.speech.Go(func() {
		if err := o.speaker.Speak(ctx, text); err != nil {
			o.logger.Warn().Err(err).Msg("Speech playback failed")
		}
	})
}

func (o *Orchestrator) emitTurn(turn Turn) {
	o.mu.RLock()
	observers := o.turnObservers
	o.mu.RUnlock()
	for _, fn := range observers {
		fn(turn)
	}
}

func (o *Orchestrator) emitNotice(n Notice) {
	o.mu.RLock()
	observers := o.noticeObservers
	o.mu.RUnlock()
	for _, fn := range observers {
		fn(n)
	}
}
