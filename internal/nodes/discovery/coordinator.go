package discovery

import (
	"context"
	"time"
)

// Config controls the coordinator's scan cadence and staleness policy.
type Config struct {
	Enabled            bool
	ScanIntervalSecs   int
	ScanTimeoutMS      int
	StaleThresholdSecs int
}

// DefaultConfig returns the coordinator's default policy: discovery off
// until explicitly enabled, a 30s scan interval, a 3s scan timeout, and
// a 120s staleness threshold for pruning unseen peers.
func DefaultConfig() Config {
	return Config{
		Enabled:            false,
		ScanIntervalSecs:   30,
		ScanTimeoutMS:      3000,
		StaleThresholdSecs: 120,
	}
}

// Coordinator advertises the local node and scans for peers over a
// Transport, tracking the most recently seen set of discovered nodes.
type Coordinator struct {
	transport   Transport
	config      Config
	localRecord *ServiceRecord
	found       map[NodeID]DiscoveredNode
}

// NewCoordinator builds a coordinator around transport with cfg.
func NewCoordinator(transport Transport, cfg Config) *Coordinator {
	return &Coordinator{
		transport: transport,
		config:    cfg,
		found:     make(map[NodeID]DiscoveredNode),
	}
}

// Config returns the coordinator's current policy.
func (c *Coordinator) Config() Config { return c.config }

// IsRegistered reports whether the local node is currently advertised.
func (c *Coordinator) IsRegistered() bool { return c.localRecord != nil }

// Register advertises record on the network and remembers it as the
// local node for self-filtering during Scan.
func (c *Coordinator) Register(ctx context.Context, record ServiceRecord) error {
	record.ServiceName = ServiceName
	if err := c.transport.Register(ctx, record); err != nil {
		return err
	}
	c.localRecord = &record
	return nil
}

// Unregister stops advertising the local node.
func (c *Coordinator) Unregister(ctx context.Context) error {
	if err := c.transport.Unregister(ctx); err != nil {
		return err
	}
	c.localRecord = nil
	return nil
}

// Scan performs one discovery pass and returns only the nodes newly
// seen this call. Nodes already known have their DiscoveredAt and
// Capabilities refreshed in place but are not included in the return
// value — callers interested in the full known set should call
// FoundNodes afterward. The local node (matched by NodeID) is always
// filtered out of results.
func (c *Coordinator) Scan(ctx context.Context) ([]DiscoveredNode, error) {
	timeout := time.Duration(c.config.ScanTimeoutMS) * time.Millisecond
	records, err := c.transport.Discover(ctx, timeout)
	if err != nil {
		return nil, err
	}

	var fresh []DiscoveredNode
	for _, record := range records {
		if c.localRecord != nil && record.NodeID == c.localRecord.NodeID {
			continue
		}
		node := record.ToDiscoveredNode()
		if _, known := c.found[node.NodeID]; !known {
			fresh = append(fresh, node)
		}
		c.found[node.NodeID] = node
	}
	return fresh, nil
}

// FoundNodes returns every node currently known, in no particular order.
func (c *Coordinator) FoundNodes() []DiscoveredNode {
	nodes := make([]DiscoveredNode, 0, len(c.found))
	for _, n := range c.found {
		nodes = append(nodes, n)
	}
	return nodes
}

// PruneStale removes nodes whose last discovery is older than the
// configured staleness threshold (or threshold, if positive, overriding
// the configured value) and returns the count removed.
func (c *Coordinator) PruneStale(threshold time.Duration) int {
	if threshold <= 0 {
		threshold = time.Duration(c.config.StaleThresholdSecs) * time.Second
	}
	cutoff := time.Now().UTC().Add(-threshold)
	removed := 0
	for id, node := range c.found {
		if node.DiscoveredAt.Before(cutoff) {
			delete(c.found, id)
			removed++
		}
	}
	return removed
}

// Clear forgets every discovered node without affecting registration.
func (c *Coordinator) Clear() {
	c.found = make(map[NodeID]DiscoveredNode)
}
