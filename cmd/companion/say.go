package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kali2026000/my-ai-companion/companion/chat"
)

func newSayCmd(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "say <message>",
		Short: "Send one message and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			session, err := a.openSession(ctx, false)
			if err != nil {
				return err
			}
			defer session.Close()

			out := cmd.OutOrStdout()
			session.Orchestrator.OnNotice(func(n chat.Notice) {
				fmt.Fprintln(cmd.ErrOrStderr(), "!", n.Message)
			})

			result, err := session.Orchestrator.Submit(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Fprintln(out, result.Turn.Content)
			if verbose {
				fmt.Fprintf(cmd.ErrOrStderr(), "source=%s exchange=%s\n", result.Source, result.ExchangeID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print where the reply came from")
	return cmd
}
