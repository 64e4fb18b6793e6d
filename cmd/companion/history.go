package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kali2026000/my-ai-companion/companion/chat"
)

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the conversation as indented JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer session.Close()

			data, err := session.Orchestrator.Export()
			if err != nil {
				return err
			}

			if out == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			if out == "" {
				out = chat.ExportFileName(time.Now())
			}
			if err := os.WriteFile(out, data, 0o600); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d turns to %s\n", session.Store.Len(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", `output file, "-" for stdout (default: conversation-YYYY-MM-DD.json)`)
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the conversation with an exported file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			session, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Orchestrator.Import(cmd.Context(), data); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d turns\n", session.Store.Len())
			return nil
		},
	}
}

func newClearCmd(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Erase the conversation and its saved copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				fmt.Fprint(cmd.OutOrStdout(), "This permanently erases the conversation. Type yes to continue: ")
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if strings.TrimSpace(strings.ToLower(line)) != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			session, err := a.openSession(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Orchestrator.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Conversation cleared.")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}
