package discovery

import (
	"context"
	"testing"
	"time"
)

func TestLoop_DisabledConfigNeverStarts(t *testing.T) {
	mock := &mockTransport{toDiscover: []ServiceRecord{{ServiceName: ServiceName, NodeID: "peer-1"}}}
	coord := NewCoordinator(mock, DefaultConfig()) // Enabled: false
	loop := NewLoop(coord, nil, nil)

	loop.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	loop.Stop()

	if len(coord.FoundNodes()) != 0 {
		t.Error("expected no scans to run while discovery disabled")
	}
}

func TestLoop_EnabledRunsImmediatelyAndStops(t *testing.T) {
	mock := &mockTransport{toDiscover: []ServiceRecord{{ServiceName: ServiceName, NodeID: "peer-1"}}}
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.ScanIntervalSecs = 60
	coord := NewCoordinator(mock, cfg)
	loop := NewLoop(coord, nil, nil)

	loop.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	loop.Stop()

	if len(coord.FoundNodes()) != 1 {
		t.Errorf("expected one node discovered on immediate tick, got %+v", coord.FoundNodes())
	}
}
