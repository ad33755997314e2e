package discovery

import (
	"os"
	"runtime"
	"time"
)

// DetectPlatform maps the running OS to a Platform value.
func DetectPlatform() Platform {
	switch runtime.GOOS {
	case "darwin":
		return PlatformMacOS
	case "linux":
		return PlatformLinux
	case "windows":
		return PlatformWindows
	default:
		return PlatformUnknown
	}
}

// Hostname returns the local machine's hostname, checking HOSTNAME then
// HOST before falling back to "unknown".
func Hostname() string {
	if h := os.Getenv("HOSTNAME"); h != "" {
		return h
	}
	if h := os.Getenv("HOST"); h != "" {
		return h
	}
	return "unknown"
}

// DiscoverLocal builds a NodeInfo describing the machine this process
// runs on. nodeID and agentVersion are caller-supplied since they
// depend on persisted identity and build metadata outside this package.
func DiscoverLocal(nodeID NodeID, agentVersion string) NodeInfo {
	platform := DetectPlatform()
	hostname := Hostname()
	return NodeInfo{
		NodeID:       nodeID,
		Name:         newInstanceName(platform, hostname),
		Platform:     platform,
		Hostname:     hostname,
		RegisteredAt: time.Now().UTC(),
		AgentVersion: agentVersion,
	}
}

// LocalServiceRecord builds the ServiceRecord to advertise for the
// local node, combining its NodeInfo with the address it listens on
// and the capabilities it offers.
func LocalServiceRecord(info NodeInfo, address string, port int, caps []Capability) ServiceRecord {
	return ServiceRecord{
		ServiceName:     ServiceName,
		InstanceName:    info.Name,
		Address:         address,
		Port:            port,
		Platform:        info.Platform,
		NodeID:          string(info.NodeID),
		CapabilitiesCSV: CapabilitiesToCSV(caps),
	}
}
