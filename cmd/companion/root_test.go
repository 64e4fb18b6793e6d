package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kali2026000/my-ai-companion/companion/chat"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("COMPANION_CREDENTIAL_API_KEY", "")

	dir := t.TempDir()
	path := filepath.Join(dir, "companion.yaml")
	content := "storage:\n  backend: file\n  data_dir: " + filepath.Join(dir, "data") + "\nlog:\n  level: error\n  pretty: false\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func lonelyReply(t *testing.T) string {
	t.Helper()
	reply, rule := chat.DefaultFallback().Reply("I feel so lonely")
	require.Equal(t, "lonely", rule)
	return reply
}

func TestSayWithoutKeyUsesFallback(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, "", "--config", cfg, "say", "I", "feel", "so", "lonely")

	require.NoError(t, err)
	assert.Contains(t, out, lonelyReply(t))
}

func TestExportImportClear(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, "", "--config", cfg, "say", "I feel so lonely")
	require.NoError(t, err)

	exportPath := filepath.Join(t.TempDir(), "backup.json")
	out, err := run(t, "", "--config", cfg, "export", "--out", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 turns")

	// Declining the prompt keeps everything
	out, err = run(t, "no\n", "--config", cfg, "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	out, err = run(t, "", "--config", cfg, "clear", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Conversation cleared.")

	out, err = run(t, "", "--config", cfg, "export", "--out", "-")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	out, err = run(t, "", "--config", cfg, "import", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 turns")

	out, err = run(t, "", "--config", cfg, "export", "-o", "-")
	require.NoError(t, err)
	turns, err := chat.DecodeSnapshot([]byte(strings.TrimSpace(out)))
	require.NoError(t, err)
	assert.Equal(t, []chat.Turn{chat.UserTurn("I feel so lonely"), chat.AssistantTurn(lonelyReply(t))}, turns)
}

func TestImportRejectsInvalidFile(t *testing.T) {
	cfg := writeTestConfig(t)
	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"role":"narrator","content":"x"}]`), 0o644))

	_, err := run(t, "", "--config", cfg, "import", bad)
	assert.Error(t, err)
}

func TestKeyStatusWithoutKey(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, "", "--config", cfg, "key", "status")

	require.NoError(t, err)
	assert.Contains(t, out, "No API key (backend memory)")
}

func TestKeySetWarnsForMemoryBackend(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, "sk-ant-from-stdin\n", "--config", cfg, "key", "set")

	require.NoError(t, err)
	assert.Contains(t, out, "API key saved.")
	assert.Contains(t, out, "gone when this command exits")
}

func TestInvalidLogLevel(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, "", "--config", cfg, "--log-level", "loud", "key", "status")
	assert.Error(t, err)
}
