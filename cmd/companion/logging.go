package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	internal "github.com/kali2026000/my-ai-companion/companion"
	"github.com/kali2026000/my-ai-companion/companion/config"
)

// newLogger builds the process logger. toFile forces file output, used by
// the TUI so log lines do not tear the screen.
func newLogger(cfg config.LogConfig, dataDir string, toFile bool) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var out io.Writer = os.Stderr
	var closer io.Closer

	path := cfg.File
	if path == "" && toFile {
		path = filepath.Join(dataDir, internal.DefaultLogFile)
	}
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("could not create log directory: %w", err)
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("could not open log file: %w", err)
		}
		out, closer = f, f
	}

	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen, NoColor: path != ""}
	}

	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}
