// Command nexus-core is the CLI entrypoint for the planning core: council
// deliberation, session persistence, and LAN node discovery.
//
// # Basic Usage
//
//	nexus-core serve --config nexuscore.yaml
//	nexus-core council ask "how should we roll this out?"
//	nexus-core session start my-project
//	nexus-core discover scan
//
// Configuration can also be supplied via environment variables:
//
//   - NEXUSCORE_HOST: server bind host
//   - NEXUSCORE_JWT_SECRET: bearer-token secret for alert actor resolution
//   - NEXUSCORE_OTEL_ENDPOINT: OTLP/gRPC trace exporter endpoint
//   - ANTHROPIC_API_KEY, GOOGLE_API_KEY, OPENROUTER_API_KEY: provider keys
//     (config.yaml's ${VAR} expansion picks these up)
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath string
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func buildRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "nexus-core",
		Short:        "Council deliberation, session persistence, and node discovery",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "nexuscore.yaml", "path to YAML configuration file")

	root.AddCommand(
		buildServeCmd(),
		buildSessionCmd(),
		buildDiscoverCmd(),
		buildCouncilCmd(),
	)
	return root
}
