package chat

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kali2026000/my-ai-companion/companion/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("COMPANION_CREDENTIAL_API_KEY", "")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Storage.DataDir = t.TempDir()
	return cfg
}

func TestFactory_CreateSession(t *testing.T) {
	for _, backend := range []string{"memory", "file", "bolt", "libsql"} {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			cfg := testConfig(t)
			cfg.Storage.Backend = backend
			cfg.Credential.APIKey = "sk-ant-seeded"

			session, err := NewFactory(cfg, zerolog.Nop()).WithProvider(replying("Hi")).CreateSession(ctx)
			require.NoError(t, err)
			defer session.Close()

			assert.True(t, session.Vault.Present(ctx))

			result, err := session.Orchestrator.Submit(ctx, "hello")
			require.NoError(t, err)
			assert.Equal(t, SourceRemote, result.Source)
			assert.Equal(t, 2, session.Store.Len())
		})
	}
}

func TestFactory_HistorySurvivesRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Storage.Backend = "bolt"
	cfg.Storage.CredentialBackend = "bolt"

	first, err := NewFactory(cfg, zerolog.Nop()).WithProvider(replying("Hi")).CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Vault.Set(ctx, "sk-ant-stored"))
	_, err = first.Orchestrator.Submit(ctx, "remember me")
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewFactory(cfg, zerolog.Nop()).WithProvider(replying("Hi")).CreateSession(ctx)
	require.NoError(t, err)
	defer second.Close()

	assert.Equal(t, []Turn{UserTurn("remember me"), AssistantTurn("Hi")}, second.Store.Turns())
	assert.True(t, second.Vault.Present(ctx))
}

func TestFactory_MemoryCredentialIsSessionScoped(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := NewFactory(cfg, zerolog.Nop()).CreateSession(ctx)
	require.NoError(t, err)
	require.NoError(t, first.Vault.Set(ctx, "sk-ant-session"))
	require.NoError(t, first.Close())

	second, err := NewFactory(cfg, zerolog.Nop()).CreateSession(ctx)
	require.NoError(t, err)
	defer second.Close()

	assert.False(t, second.Vault.Present(ctx))
}

func TestFactory_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown backend", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Backend = "redis"

		_, err := NewFactory(cfg, zerolog.Nop()).CreateSession(ctx)
		assert.Error(t, err)
	})

	t.Run("missing speech command", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Speech.Enabled = true
		cfg.Speech.Command = "definitely-not-a-speech-binary"

		_, err := NewFactory(cfg, zerolog.Nop()).CreateSession(ctx)
		assert.Error(t, err)
	})
}
