// Package companion holds application-wide defaults shared by the config,
// storage and CLI layers.
package companion

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName = "companion"

	// Storage slot keys. The history and the credential live in separate slots.
	DefaultHistoryKey    = "companion_history"
	DefaultCredentialKey = "claude_api_key"

	DefaultBoltFile   = "companion.db"
	DefaultLibSQLFile = "companion.sqlite"
	DefaultLogFile    = "companion.log"

	// Greeting shown when a chat session opens. It is not part of the log.
	DefaultGreeting = "Hey, I'm here for you. What's on your mind?"
)

var (
	DefaultConfigPath = filepath.Join(userConfigDir(), DefaultAppName)
	DefaultDataDir    = filepath.Join(userDataDir(), DefaultAppName)
)

func userConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return dir
	}
	return "."
}

func userDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}
