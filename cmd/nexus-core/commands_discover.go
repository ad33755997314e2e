package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nexuscore/core/internal/config"
	"github.com/nexuscore/core/internal/nodes/discovery"
	"github.com/spf13/cobra"
)

func buildDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find and list peer nodes on the LAN",
	}
	cmd.AddCommand(buildDiscoverScanCmd())
	return cmd
}

func buildDiscoverScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a single discovery scan and print the nodes found",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			transport := discovery.NewUDPTransport()
			coord := discovery.NewCoordinator(transport, discovery.Config{
				Enabled:            true,
				ScanIntervalSecs:   cfg.Discovery.ScanIntervalSecs,
				ScanTimeoutMS:      cfg.Discovery.ScanTimeoutMS,
				StaleThresholdSecs: cfg.Discovery.StaleThresholdSecs,
			})

			info := discovery.DiscoverLocal(discovery.NodeID(uuid.NewString()), version)
			record := discovery.LocalServiceRecord(info, "", cfg.Server.Port, nil)
			if err := coord.Register(cmd.Context(), record); err != nil {
				return fmt.Errorf("register local node: %w", err)
			}
			defer coord.Unregister(cmd.Context())

			timeout := time.Duration(cfg.Discovery.ScanTimeoutMS) * time.Millisecond
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout+time.Second)
			defer cancel()
			if _, err := coord.Scan(ctx); err != nil {
				return fmt.Errorf("scan: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(coord.FoundNodes())
		},
	}
}
