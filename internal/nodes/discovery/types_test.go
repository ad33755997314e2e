package discovery

import "testing"

func TestCapabilitiesCSVRoundTrip(t *testing.T) {
	caps := []Capability{
		{Kind: CapShell},
		{Kind: CapFileSystem},
		{Kind: CapAppControl, Payload: "Safari"},
		{Kind: CapCustom, Payload: "printer"},
	}
	csv := CapabilitiesToCSV(caps)
	record := ServiceRecord{CapabilitiesCSV: csv}
	got := record.ParseCapabilities()

	if len(got) != len(caps) {
		t.Fatalf("len(got) = %d, want %d (csv=%q)", len(got), len(caps), csv)
	}
	for i, c := range caps {
		if got[i] != c {
			t.Errorf("got[%d] = %+v, want %+v", i, got[i], c)
		}
	}
}

func TestParseCapabilities_SkipsUnknownTokens(t *testing.T) {
	record := ServiceRecord{CapabilitiesCSV: "shell,some_future_capability,browser"}
	got := record.ParseCapabilities()
	if len(got) != 2 {
		t.Fatalf("len(got) = %d, want 2, got %+v", len(got), got)
	}
	if got[0].Kind != CapShell || got[1].Kind != CapBrowser {
		t.Errorf("got = %+v", got)
	}
}

func TestParseCapabilities_Empty(t *testing.T) {
	record := ServiceRecord{}
	if got := record.ParseCapabilities(); got != nil {
		t.Errorf("expected nil for empty CSV, got %+v", got)
	}
}

func TestCapabilityString(t *testing.T) {
	cases := []struct {
		cap  Capability
		want string
	}{
		{Capability{Kind: CapShell}, "shell"},
		{Capability{Kind: CapAppControl, Payload: "Finder"}, "app_control:Finder"},
		{Capability{Kind: CapCustom, Payload: "x"}, "custom:x"},
	}
	for _, tc := range cases {
		if got := tc.cap.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestToDiscoveredNode(t *testing.T) {
	record := ServiceRecord{
		ServiceName:     ServiceName,
		InstanceName:    "host-linux",
		Address:         "192.168.1.5",
		Port:            7777,
		Platform:        PlatformLinux,
		NodeID:          "node-1",
		CapabilitiesCSV: "shell,clipboard",
	}
	node := record.ToDiscoveredNode()
	if node.NodeID != "node-1" || node.Address != "192.168.1.5" || node.Port != 7777 {
		t.Errorf("unexpected node: %+v", node)
	}
	if len(node.Capabilities) != 2 {
		t.Errorf("expected 2 capabilities, got %+v", node.Capabilities)
	}
	if node.DiscoveredAt.IsZero() {
		t.Error("expected DiscoveredAt to be stamped")
	}
}
