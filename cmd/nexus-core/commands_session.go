package main

import (
	"encoding/json"
	"fmt"

	"github.com/nexuscore/core/internal/config"
	"github.com/nexuscore/core/internal/sessioncore"
	"github.com/spf13/cobra"
)

func buildSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage persisted sessions",
	}
	cmd.AddCommand(buildSessionStartCmd(), buildSessionListCmd(), buildSessionResumeCmd())
	return cmd
}

func openSessionManager() (*sessioncore.Manager, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return sessioncore.NewManager(cfg.Workspace)
}

func buildSessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start [name]",
		Short: "Start a new session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openSessionManager()
			if err != nil {
				return err
			}
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			entry := mgr.StartSession(name)
			fmt.Fprintf(cmd.OutOrStdout(), "started session %s (%s)\n", entry.ID, entry.Name)
			return nil
		},
	}
}

func buildSessionListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openSessionManager()
			if err != nil {
				return err
			}
			entries := mgr.ListSessions(limit)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum sessions to list")
	return cmd
}

func buildSessionResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resume <query>",
		Short: "Resume the session matching query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openSessionManager()
			if err != nil {
				return err
			}
			_, continuation, err := mgr.ResumeSession(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), continuation)
			return nil
		},
	}
}
