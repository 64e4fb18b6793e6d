package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kali2026000/my-ai-companion/companion/chat"
)

func newKeyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the API key",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [key]",
			Short: "Store an API key (read from stdin when omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var key string
				if len(args) == 1 {
					key = args[0]
				} else {
					fmt.Fprint(cmd.OutOrStdout(), "API key: ")
					key, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				}

				session, err := a.openSession(cmd.Context(), false)
				if err != nil {
					return err
				}
				defer session.Close()

				if err := session.Vault.Set(cmd.Context(), key); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "API key saved.")
				if a.cfg.Storage.CredentialBackend == "memory" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Note: storage.credential_backend is memory, so the key is gone when this command exits.")
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Forget the stored API key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				session, err := a.openSession(cmd.Context(), false)
				if err != nil {
					return err
				}
				defer session.Close()

				if err := session.Vault.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "API key cleared.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show whether an API key is available",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				session, err := a.openSession(cmd.Context(), false)
				if err != nil {
					return err
				}
				defer session.Close()

				key, ok, err := session.Vault.Get(cmd.Context())
				if err != nil {
					return err
				}
				backend := a.cfg.Storage.CredentialBackend
				if !ok {
					fmt.Fprintf(cmd.OutOrStdout(), "No API key (backend %s). Replies come from the offline table.\n", backend)
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "API key %s (backend %s)\n", chat.MaskCredential(key), backend)
				return nil
			},
		},
	)
	return cmd
}
