package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kali2026000/my-ai-companion/companion/chat"
	"github.com/kali2026000/my-ai-companion/companion/config"
	"github.com/kali2026000/my-ai-companion/companion/tui"
)

func newChatCmd(a *app) *cobra.Command {
	var exportDir string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the interactive chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := a.openSession(ctx, true)
			if err != nil {
				return err
			}
			defer session.Close()

			// Persona and reply table follow the config file while chatting
			a.loader.Watch(func(cfg *config.Config, err error) {
				if err != nil {
					a.logger.Warn().Err(err).Msg("Ignoring invalid config change")
					return
				}
				session.Orchestrator.UpdatePolicy(chat.PolicyFromConfig(cfg.Chat))
				session.Orchestrator.UpdateFallback(chat.FallbackFromConfig(cfg.Fallback))
				a.logger.Info().Msg("Config reloaded")
			})

			if exportDir == "" {
				if exportDir, err = os.Getwd(); err != nil {
					return err
				}
			}
			return tui.Run(ctx, session.Orchestrator, session.Vault, exportDir)
		},
	}

	cmd.Flags().StringVar(&exportDir, "export-dir", "", "directory for /export files (default: current directory)")
	return cmd
}
