// Package discovery finds nodes available for task execution: the local
// machine, plus peers on the LAN advertised over a simplified mDNS-style
// UDP multicast protocol.
package discovery

import (
	"fmt"
	"strings"
	"time"
)

// mDNS wire constants. These match the standard mDNS multicast group and
// port; the payload format itself is a simplified nexuscore-specific JSON
// envelope, not full RFC 6762.
const (
	MulticastAddr = "224.0.0.251"
	MulticastPort = 5353
	ServiceName   = "_nexuscore._tcp.local."
)

// Platform identifies the OS family a node runs on.
type Platform string

const (
	PlatformMacOS   Platform = "macos"
	PlatformLinux   Platform = "linux"
	PlatformWindows Platform = "windows"
	PlatformUnknown Platform = "unknown"
)

// NodeID uniquely identifies a node taking part in discovery.
type NodeID string

// Capability is something a discovered node can do. AppControl and
// Custom carry a free-text payload (the controlled app's name, or an
// arbitrary custom capability token).
type Capability struct {
	Kind    CapabilityKind
	Payload string // set only for CapAppControl / CapCustom
}

// CapabilityKind enumerates the closed set of capability tags.
type CapabilityKind string

const (
	CapShell         CapabilityKind = "shell"
	CapFileSystem    CapabilityKind = "filesystem"
	CapAppleScript   CapabilityKind = "applescript"
	CapAutomator     CapabilityKind = "automator"
	CapScreenshot    CapabilityKind = "screenshot"
	CapClipboard     CapabilityKind = "clipboard"
	CapNotifications CapabilityKind = "notifications"
	CapBrowser       CapabilityKind = "browser"
	CapCamera        CapabilityKind = "camera"
	CapScreenRecord  CapabilityKind = "screen_record"
	CapLocation      CapabilityKind = "location"
	CapAppControl    CapabilityKind = "app_control"
	CapCustom        CapabilityKind = "custom"
)

// String renders the capability in its CSV wire form.
func (c Capability) String() string {
	switch c.Kind {
	case CapAppControl:
		return "app_control:" + c.Payload
	case CapCustom:
		return "custom:" + c.Payload
	default:
		return string(c.Kind)
	}
}

// NodeInfo describes a locally-known node (typically the local machine).
type NodeInfo struct {
	NodeID       NodeID
	Name         string
	Platform     Platform
	Hostname     string
	RegisteredAt time.Time
	OSVersion    string
	AgentVersion string
}

// DiscoveredNode is a peer found on the network, with connection
// metadata and a freshness timestamp used for stale-node pruning.
type DiscoveredNode struct {
	NodeID        NodeID
	Address       string
	Port          int
	Platform      Platform
	Capabilities  []Capability
	DiscoveredAt  time.Time
}

// ServiceRecord is the wire payload advertised and scanned for over
// UDP multicast.
type ServiceRecord struct {
	ServiceName     string   `json:"service_name"`
	InstanceName    string   `json:"instance_name"`
	Address         string   `json:"address"`
	Port            int      `json:"port"`
	Platform        Platform `json:"platform"`
	NodeID          string   `json:"node_id"`
	CapabilitiesCSV string   `json:"capabilities_csv"`
}

// ParseCapabilities decodes the record's comma-separated capability
// list. Unrecognized tokens are silently skipped, matching a forward-
// compatible wire format where newer capability tags from a peer
// running a newer version don't break an older scanner.
func (r ServiceRecord) ParseCapabilities() []Capability {
	if r.CapabilitiesCSV == "" {
		return nil
	}
	var caps []Capability
	for _, tok := range strings.Split(r.CapabilitiesCSV, ",") {
		tok = strings.TrimSpace(tok)
		switch {
		case tok == "":
			continue
		case tok == string(CapShell):
			caps = append(caps, Capability{Kind: CapShell})
		case tok == string(CapFileSystem):
			caps = append(caps, Capability{Kind: CapFileSystem})
		case tok == string(CapAppleScript):
			caps = append(caps, Capability{Kind: CapAppleScript})
		case tok == string(CapAutomator):
			caps = append(caps, Capability{Kind: CapAutomator})
		case tok == string(CapScreenshot):
			caps = append(caps, Capability{Kind: CapScreenshot})
		case tok == string(CapClipboard):
			caps = append(caps, Capability{Kind: CapClipboard})
		case tok == string(CapNotifications):
			caps = append(caps, Capability{Kind: CapNotifications})
		case tok == string(CapBrowser):
			caps = append(caps, Capability{Kind: CapBrowser})
		case tok == string(CapCamera):
			caps = append(caps, Capability{Kind: CapCamera})
		case tok == string(CapScreenRecord):
			caps = append(caps, Capability{Kind: CapScreenRecord})
		case tok == string(CapLocation):
			caps = append(caps, Capability{Kind: CapLocation})
		case strings.HasPrefix(tok, "app_control:"):
			caps = append(caps, Capability{Kind: CapAppControl, Payload: tok[len("app_control:"):]})
		case strings.HasPrefix(tok, "custom:"):
			caps = append(caps, Capability{Kind: CapCustom, Payload: tok[len("custom:"):]})
		}
	}
	return caps
}

// CapabilitiesToCSV encodes a capability slice into its wire CSV form.
func CapabilitiesToCSV(caps []Capability) string {
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = c.String()
	}
	return strings.Join(parts, ",")
}

// ToDiscoveredNode converts a wire record into a DiscoveredNode, stamping
// the discovery time as now.
func (r ServiceRecord) ToDiscoveredNode() DiscoveredNode {
	return DiscoveredNode{
		NodeID:       NodeID(r.NodeID),
		Address:      r.Address,
		Port:         r.Port,
		Platform:     r.Platform,
		Capabilities: r.ParseCapabilities(),
		DiscoveredAt: time.Now().UTC(),
	}
}

func newInstanceName(platform Platform, hostname string) string {
	return fmt.Sprintf("%s-%s", hostname, platform)
}
