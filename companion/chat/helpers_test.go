package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/kali2026000/my-ai-companion/companion/chat/adapters"
	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
)

// flakyKV wraps a MemoryKV and fails selected operations.
type flakyKV struct {
	*adapters.MemoryKV
	getErr    error
	setErr    error
	removeErr error
}

func newFlakyKV() *flakyKV { return &flakyKV{MemoryKV: adapters.NewMemoryKV()} }

func (f *flakyKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	return f.MemoryKV.Get(ctx, key)
}

func (f *flakyKV) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.MemoryKV.Set(ctx, key, value)
}

func (f *flakyKV) Remove(ctx context.Context, key string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	return f.MemoryKV.Remove(ctx, key)
}

var errDiskFull = errors.New("disk full")

// cancellableKV honors context cancellation on writes, like the SQL backend.
type cancellableKV struct {
	*adapters.MemoryKV
}

func (c *cancellableKV) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.MemoryKV.Set(ctx, key, value)
}

// gatedKV holds Remove until release is closed.
type gatedKV struct {
	*adapters.MemoryKV
	removing chan struct{}
	release  chan struct{}
}

func newGatedKV() *gatedKV {
	return &gatedKV{MemoryKV: adapters.NewMemoryKV(), removing: make(chan struct{}), release: make(chan struct{})}
}

func (g *gatedKV) Remove(ctx context.Context, key string) error {
	close(g.removing)
	<-g.release
	return g.MemoryKV.Remove(ctx, key)
}

// StubProvider implements Provider for testing.
type StubProvider struct {
	mu             sync.Mutex
	calls          []ports.PromptInput
	credentials    []string
	completionFunc func(ctx context.Context, in ports.PromptInput, opts ports.Options) (ports.Completion, error)
}

func (p *StubProvider) Complete(ctx context.Context, credential string, in ports.PromptInput, opts ports.Options) (ports.Completion, error) {
	p.mu.Lock()
	p.calls = append(p.calls, in)
	p.credentials = append(p.credentials, credential)
	p.mu.Unlock()

	if p.completionFunc != nil {
		return p.completionFunc(ctx, in, opts)
	}
	return ports.Completion{
		Text: "stub completion",
		Usage: &ports.Usage{
			PromptTokens:     10,
			CompletionTokens: 5,
			TotalTokens:      15,
		},
	}, nil
}

func (p *StubProvider) Calls() []ports.PromptInput {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.PromptInput, len(p.calls))
	copy(out, p.calls)
	return out
}

// recordingSpeaker remembers everything it was asked to say.
type recordingSpeaker struct {
	mu    sync.Mutex
	spoke []string
}

func (s *recordingSpeaker) Speak(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoke = append(s.spoke, text)
	return nil
}

func (s *recordingSpeaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoke...)
}

var (
	_ ports.KeyValueStore = (*flakyKV)(nil)
	_ ports.Provider      = (*StubProvider)(nil)
	_ ports.Speaker       = (*recordingSpeaker)(nil)
	_ ports.KeyValueStore = (*cancellableKV)(nil)
	_ ports.KeyValueStore = (*gatedKV)(nil)
)
