package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/kali2026000/my-ai-companion/companion/chat/adapters"
	ports "github.com/kali2026000/my-ai-companion/companion/chat/ports"
	"github.com/kali2026000/my-ai-companion/companion/config"
	"github.com/kali2026000/my-ai-companion/companion/db"
)

// Session is a fully wired orchestrator together with the resources it owns.
type Session struct {
	Orchestrator *Orchestrator
	Store        *ConversationStore
	Vault        *CredentialVault

	closers []io.Closer
}

// Close waits for pending speech and releases storage handles.
func (s *Session) Close() error {
	s.Orchestrator.Wait()

	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Factory creates and wires chat components from configuration.
type Factory struct {
	cfg      *config.Config
	logger   zerolog.Logger
	provider ports.Provider // optional override

	backends map[string]ports.KeyValueStore
	closers  []io.Closer
}

// NewFactory creates a new factory.
func NewFactory(cfg *config.Config, logger zerolog.Logger) *Factory {
	return &Factory{
		cfg:      cfg,
		logger:   logger,
		backends: make(map[string]ports.KeyValueStore),
	}
}

// WithProvider replaces the Anthropic provider, mainly for tests.
func (f *Factory) WithProvider(p ports.Provider) *Factory {
	f.provider = p
	return f
}

// CreateSession opens storage, restores the conversation, seeds the
// credential and wires the orchestrator.
func (f *Factory) CreateSession(ctx context.Context) (_ *Session, err error) {
	defer func() {
		if err != nil {
			f.closeAll()
		}
	}()

	historyKV, err := f.createKV(ctx, f.cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}
	credentialKV, err := f.createKV(ctx, f.cfg.Storage.CredentialBackend)
	if err != nil {
		return nil, err
	}

	store := NewConversationStore(historyKV, f.cfg.Storage.HistoryKey, f.logger)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}

	vault := NewCredentialVault(credentialKV, f.cfg.Storage.CredentialKey)
	if f.cfg.Credential.APIKey != "" {
		if err := vault.Set(ctx, f.cfg.Credential.APIKey); err != nil {
			return nil, err
		}
	}

	speaker, err := f.createSpeaker()
	if err != nil {
		return nil, err
	}

	orchestrator := NewOrchestrator(
		store,
		vault,
		f.createProvider(),
		f.createRateLimiter(),
		f.createTracer(),
		speaker,
		FallbackFromConfig(f.cfg.Fallback),
		PolicyFromConfig(f.cfg.Chat),
		f.logger,
	)

	return &Session{
		Orchestrator: orchestrator,
		Store:        store,
		Vault:        vault,
		closers:      f.closers,
	}, nil
}

// createKV opens a backend once; both slots share an instance when they
// use the same backend.
func (f *Factory) createKV(ctx context.Context, backend string) (ports.KeyValueStore, error) {
	if kv, ok := f.backends[backend]; ok {
		return kv, nil
	}

	var kv ports.KeyValueStore
	switch backend {
	case "memory":
		kv = adapters.NewMemoryKV()
	case "file":
		fileKV, err := adapters.NewFileKV(f.cfg.Storage.DataDir)
		if err != nil {
			return nil, err
		}
		kv = fileKV
	case "bolt":
		boltKV, err := adapters.NewBoltKV(filepath.Join(f.cfg.Storage.DataDir, f.cfg.Storage.BoltFile))
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, boltKV)
		kv = boltKV
	case "libsql":
		conn, err := db.ConnectToDB(ctx, filepath.Join(f.cfg.Storage.DataDir, f.cfg.Storage.LibSQLFile), f.logger)
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, conn)
		kv = adapters.NewSQLKV(conn)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}

	f.logger.Debug().Str("backend", backend).Msg("Storage backend ready")
	f.backends[backend] = kv
	return kv, nil
}

func (f *Factory) closeAll() {
	for i := len(f.closers) - 1; i >= 0; i-- {
		_ = f.closers[i].Close()
	}
	f.closers = nil
}

func (f *Factory) createProvider() ports.Provider {
	if f.provider != nil {
		return f.provider
	}
	return adapters.NewAnthropicProvider(f.cfg.Chat.BaseURL, f.cfg.Chat.APIVersion)
}

// createRateLimiter creates a rate limiter adapter from config.
func (f *Factory) createRateLimiter() ports.RateLimiter {
	if !f.cfg.RateLimit.Enabled {
		return &noOpRateLimiter{}
	}
	return adapters.NewTokenBucket(f.cfg.RateLimit.Capacity, f.cfg.RateLimit.RefillRate)
}

func (f *Factory) createTracer() ports.Tracer {
	return adapters.NewZerologTracer(f.logger)
}

// createSpeaker resolves the speech command. A missing binary is an error
// only when speech is enabled.
func (f *Factory) createSpeaker() (ports.Speaker, error) {
	if !f.cfg.Speech.Enabled {
		return &noOpSpeaker{}, nil
	}
	speaker, err := adapters.NewExecSpeaker(f.cfg.Speech.Command, f.cfg.Speech.Args...)
	if err != nil {
		return nil, fmt.Errorf("speech output: %w", err)
	}
	return speaker, nil
}

// noOpRateLimiter implements RateLimiter interface with no-op behavior.
type noOpRateLimiter struct{}

func (r *noOpRateLimiter) Acquire(ctx context.Context, key string) error { return nil }

// noOpTracer implements Tracer interface with no-op behavior.
type noOpTracer struct{}

func (t *noOpTracer) StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, func(err error)) {
	return ctx, func(err error) {}
}

func (t *noOpTracer) Event(ctx context.Context, name string, attrs map[string]any) {}

type noOpSpeaker struct{}

func (s *noOpSpeaker) Speak(ctx context.Context, text string) error { return nil }

// Ensure all no-op types implement their interfaces.
var (
	_ ports.RateLimiter = (*noOpRateLimiter)(nil)
	_ ports.Tracer      = (*noOpTracer)(nil)
	_ ports.Speaker     = (*noOpSpeaker)(nil)
)
