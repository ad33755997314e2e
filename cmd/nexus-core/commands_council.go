package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nexuscore/core/internal/config"
	"github.com/nexuscore/core/internal/council"
	"github.com/nexuscore/core/internal/observability"
	"github.com/spf13/cobra"
)

func buildCouncilCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "council",
		Short: "Run council deliberation over a question",
	}
	cmd.AddCommand(buildCouncilAskCmd())
	return cmd
}

func buildCouncilAskCmd() *cobra.Command {
	var strategy string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Deliberate over a question and print the synthesized answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			var metrics *observability.Metrics
			if cfg.Observability.MetricsEnabled {
				metrics = observability.NewMetrics()
			}
			tracer, shutdownTracer := observability.NewTracer(observability.TraceConfig{
				ServiceName:    cfg.Observability.Tracing.ServiceName,
				Environment:    cfg.Observability.Tracing.Environment,
				Endpoint:       cfg.Observability.Tracing.Endpoint,
				SamplingRate:   cfg.Observability.Tracing.SamplingRate,
				EnableInsecure: cfg.Observability.Tracing.EnableInsecure,
			})
			defer shutdownTracer(cmd.Context())

			c, err := buildCouncil(*cfg, metrics, tracer)
			if err != nil {
				return err
			}

			result, err := c.Deliberate(cmd.Context(), strings.Join(args, " "), council.VotingStrategy(strategy))
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
	cmd.Flags().StringVar(&strategy, "strategy", string(council.ChairmanSynthesis), "voting strategy: chairman_synthesis, highest_score, majority_consensus")
	return cmd
}
