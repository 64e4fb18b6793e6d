package main

import (
	"context"
	"io"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kali2026000/my-ai-companion/companion/chat"
	"github.com/kali2026000/my-ai-companion/companion/config"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string

	loader    *config.Loader
	cfg       *config.Config
	logger    zerolog.Logger
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "companion",
		Short:         "A supportive chat companion for the terminal",
		Long:          "Chat with Claude from the terminal. Without an API key the companion answers from an offline reply table.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logCloser != nil {
				a.logCloser.Close()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: ./config.yaml or the user config dir)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	root.AddCommand(
		newChatCmd(a),
		newSayCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newClearCmd(a),
		newKeyCmd(a),
	)
	return root
}

// setup loads config and the logger. Subcommands call it from RunE so the
// TUI can ask for file logging.
func (a *app) setup(ctx context.Context, logToFile bool) error {
	a.loader = config.NewLoader()
	cfg, err := a.loader.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, closer, err := newLogger(cfg.Log, cfg.Storage.DataDir, logToFile)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logCloser = closer

	if used := a.loader.ConfigFileUsed(); used != "" {
		logger.Debug().Str("path", used).Msg("Loaded config file")
	}
	return nil
}

// openSession loads config and wires the orchestrator.
func (a *app) openSession(ctx context.Context, logToFile bool) (*chat.Session, error) {
	if err := a.setup(ctx, logToFile); err != nil {
		return nil, err
	}
	session, err := chat.NewFactory(a.cfg, a.logger).CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	assert.Assert(ctx, session.Orchestrator != nil && session.Store != nil && session.Vault != nil, "session is missing a component")
	return session, nil
}
