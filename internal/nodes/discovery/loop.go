package discovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nexuscore/core/internal/observability"
	"github.com/robfig/cron/v3"
)

// Loop drives a Coordinator on a fixed interval via a cron scheduler:
// scan, log newly found nodes, then prune anything gone stale.
type Loop struct {
	coord   *Coordinator
	logger  *slog.Logger
	metrics *observability.Metrics

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

// NewLoop builds a Loop around coord. A nil logger defaults to
// slog.Default. metrics is optional; a nil value disables scan counters.
func NewLoop(coord *Coordinator, logger *slog.Logger, metrics *observability.Metrics) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{coord: coord, logger: logger.With("component", "node-discovery"), metrics: metrics}
}

// Start begins the scan loop in the background. It is a no-op if
// discovery is disabled in the coordinator's config, or the loop is
// already running.
func (l *Loop) Start(ctx context.Context) {
	if !l.coord.Config().Enabled {
		return
	}

	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true

	interval := time.Duration(l.coord.Config().ScanIntervalSecs) * time.Second
	c := cron.New()
	_, _ = c.Schedule(cron.Every(interval), cron.FuncJob(func() { l.tick(ctx) }))
	l.cron = c
	l.mu.Unlock()

	l.tick(ctx)
	c.Start()
}

// Stop halts the loop.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	if l.cron != nil {
		stopCtx := l.cron.Stop()
		<-stopCtx.Done()
		l.cron = nil
	}
}

func (l *Loop) tick(ctx context.Context) {
	fresh, err := l.coord.Scan(ctx)
	if err != nil {
		l.logger.Warn("node discovery scan failed", "error", err)
		l.recordScan("error")
		return
	}
	l.recordScan("success")
	for _, node := range fresh {
		l.logger.Info("discovered node", "node_id", node.NodeID, "address", node.Address, "platform", node.Platform)
	}

	staleThreshold := time.Duration(l.coord.Config().StaleThresholdSecs) * time.Second
	if removed := l.coord.PruneStale(staleThreshold); removed > 0 {
		l.logger.Info("pruned stale nodes", "count", removed)
	}
	if l.metrics != nil {
		l.metrics.DiscoveryNodesActive.Set(float64(len(l.coord.FoundNodes())))
	}
}

func (l *Loop) recordScan(result string) {
	if l.metrics != nil {
		l.metrics.DiscoveryScanResults.WithLabelValues(result).Inc()
	}
}
