package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	internal "github.com/kali2026000/my-ai-companion/companion"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()

	// Run from an empty directory so no stray config.yaml is picked up
	require.NoError(suite.T(), os.Chdir(suite.tempDir))

	suite.T().Setenv("ANTHROPIC_API_KEY", "")
	suite.T().Setenv("COMPANION_CREDENTIAL_API_KEY", "")
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) writeConfig(content string) string {
	path := filepath.Join(suite.tempDir, "companion.yaml")
	require.NoError(suite.T(), os.WriteFile(path, []byte(content), 0o644))
	return path
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), "claude-sonnet-4-20250514", cfg.Chat.Model)
	assert.Equal(suite.T(), 1024, cfg.Chat.MaxTokens)
	assert.Equal(suite.T(), 10, cfg.Chat.ContextWindow)
	assert.Equal(suite.T(), 30*time.Second, cfg.Chat.RequestTimeout)
	assert.Equal(suite.T(), "2023-06-01", cfg.Chat.APIVersion)
	assert.Equal(suite.T(), DefaultSystemPrompt, cfg.Chat.SystemPrompt)

	assert.Equal(suite.T(), "file", cfg.Storage.Backend)
	assert.Equal(suite.T(), "memory", cfg.Storage.CredentialBackend)
	assert.Equal(suite.T(), internal.DefaultDataDir, cfg.Storage.DataDir)
	assert.Equal(suite.T(), internal.DefaultHistoryKey, cfg.Storage.HistoryKey)
	assert.Equal(suite.T(), internal.DefaultCredentialKey, cfg.Storage.CredentialKey)

	assert.True(suite.T(), cfg.RateLimit.Enabled)
	assert.Equal(suite.T(), 2*time.Second, cfg.RateLimit.RefillRate)

	assert.False(suite.T(), cfg.Speech.Enabled)
	assert.Equal(suite.T(), DefaultFallbackReply, cfg.Fallback.DefaultReply)
	assert.Empty(suite.T(), cfg.Fallback.Rules)
	assert.Empty(suite.T(), cfg.Credential.APIKey)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	path := suite.writeConfig(`
chat:
  model: "claude-test"
  max_tokens: 256
  context_window: 4
  request_timeout: "5s"
storage:
  backend: "bolt"
  data_dir: "./data"
fallback:
  default_reply: "still here"
  rules:
    - name: "rain"
      triggers: ["rain", "storm"]
      reply: "Rainy days can feel heavy."
`)

	loader := NewLoader()
	cfg, err := loader.Load(path)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), path, loader.ConfigFileUsed())
	assert.Equal(suite.T(), "claude-test", cfg.Chat.Model)
	assert.Equal(suite.T(), 256, cfg.Chat.MaxTokens)
	assert.Equal(suite.T(), 4, cfg.Chat.ContextWindow)
	assert.Equal(suite.T(), 5*time.Second, cfg.Chat.RequestTimeout)
	assert.Equal(suite.T(), "bolt", cfg.Storage.Backend)
	assert.Equal(suite.T(), "./data", cfg.Storage.DataDir)

	require.Len(suite.T(), cfg.Fallback.Rules, 1)
	assert.Equal(suite.T(), "rain", cfg.Fallback.Rules[0].Name)
	assert.Equal(suite.T(), []string{"rain", "storm"}, cfg.Fallback.Rules[0].Triggers)
	assert.Equal(suite.T(), "still here", cfg.Fallback.DefaultReply)

	// Untouched sections keep their defaults
	assert.Equal(suite.T(), "2023-06-01", cfg.Chat.APIVersion)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	// An explicit path that does not exist is an error, unlike the search path
	cfg, err := LoadConfig("/nonexistent/path/companion.yaml")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	path := suite.writeConfig("chat:\n  model: [unterminated\n")

	cfg, err := LoadConfig(path)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestEnvironmentOverrides() {
	suite.T().Setenv("COMPANION_CHAT_MODEL", "claude-env")
	suite.T().Setenv("COMPANION_STORAGE_BACKEND", "memory")
	suite.T().Setenv("ANTHROPIC_API_KEY", "sk-ant-from-env")

	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "claude-env", cfg.Chat.Model)
	assert.Equal(suite.T(), "memory", cfg.Storage.Backend)
	assert.Equal(suite.T(), "sk-ant-from-env", cfg.Credential.APIKey)
}

func (suite *ConfigTestSuite) TestValidateRejectsBadValues() {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero window", "chat:\n  context_window: 0\n"},
		{"negative tokens", "chat:\n  max_tokens: -1\n"},
		{"unknown backend", "storage:\n  backend: \"redis\"\n"},
		{"shared slot key", "storage:\n  history_key: \"slot\"\n  credential_key: \"slot\"\n"},
		{"rule without reply", "fallback:\n  rules:\n    - name: x\n      triggers: [\"a\"]\n"},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			path := suite.writeConfig(tt.yaml)
			cfg, err := LoadConfig(path)
			assert.Error(suite.T(), err)
			assert.Nil(suite.T(), cfg)
		})
	}
}

func (suite *ConfigTestSuite) TestWatchWithoutFileIsNoop() {
	loader := NewLoader()
	_, err := loader.Load("")
	require.NoError(suite.T(), err)

	called := false
	loader.Watch(func(*Config, error) { called = true })
	assert.False(suite.T(), called)
}
