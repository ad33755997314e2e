package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nexuscore/core/internal/config"
	"github.com/nexuscore/core/internal/nodes/discovery"
	"github.com/nexuscore/core/internal/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownGrace = 5 * time.Second

// buildServeCmd starts the long-running process: a metrics endpoint and,
// if configured, the background node discovery loop. SIGINT/SIGTERM
// trigger graceful shutdown.
func buildServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the discovery loop and metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
}

func runServe(ctx context.Context, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics()
	}

	var loopMu sync.Mutex
	var activeLoop *discovery.Loop

	startDiscovery := func(dc config.DiscoveryConfig) {
		loopMu.Lock()
		defer loopMu.Unlock()
		if activeLoop != nil {
			activeLoop.Stop()
			activeLoop = nil
		}
		if !dc.Enabled {
			return
		}
		transport := discovery.NewUDPTransport()
		coord := discovery.NewCoordinator(transport, discovery.Config{
			Enabled:            dc.Enabled,
			ScanIntervalSecs:   dc.ScanIntervalSecs,
			ScanTimeoutMS:      dc.ScanTimeoutMS,
			StaleThresholdSecs: dc.StaleThresholdSecs,
		})
		loop := discovery.NewLoop(coord, slog.Default(), metrics)
		loop.Start(ctx)
		activeLoop = loop
	}

	startDiscovery(cfg.Discovery)
	defer func() {
		loopMu.Lock()
		if activeLoop != nil {
			activeLoop.Stop()
		}
		loopMu.Unlock()
	}()

	go func() {
		err := config.Watch(ctx, path, slog.Default(), func(fresh *config.Config) {
			startDiscovery(fresh.Discovery)
		})
		if err != nil && ctx.Err() == nil {
			slog.Warn("config watch stopped", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("nexus-core serving", "addr", addr, "discovery", cfg.Discovery.Enabled)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
