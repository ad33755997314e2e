package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"golang.org/x/net/ipv4"
)

// Transport abstracts the mDNS network operations so the coordinator can
// be tested without real sockets.
type Transport interface {
	// Register advertises record on the local network.
	Register(ctx context.Context, record ServiceRecord) error
	// Unregister stops advertising.
	Unregister(ctx context.Context) error
	// Discover performs a single scan and returns found records, blocking
	// up to timeout.
	Discover(ctx context.Context, timeout time.Duration) ([]ServiceRecord, error)
}

// UDPTransport is a real Transport backed by UDP multicast. It sends and
// receives JSON-encoded ServiceRecord packets on 224.0.0.251:5353 — the
// standard mDNS multicast group and port, carrying a simplified
// nexuscore-specific payload rather than full RFC 6762 records.
type UDPTransport struct {
	bindAddr string
}

// NewUDPTransport constructs a transport bound to the default mDNS port
// on all interfaces.
func NewUDPTransport() *UDPTransport {
	return &UDPTransport{bindAddr: fmt.Sprintf("0.0.0.0:%d", MulticastPort)}
}

// NewUDPTransportWithBindAddr constructs a transport bound to a custom
// local address, useful in tests to avoid binding the real mDNS port.
func NewUDPTransportWithBindAddr(addr string) *UDPTransport {
	return &UDPTransport{bindAddr: addr}
}

func (t *UDPTransport) Register(ctx context.Context, record ServiceRecord) error {
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return fmt.Errorf("binding UDP socket: %w", err)
	}
	defer conn.Close()

	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("serializing service record: %w", err)
	}

	dest, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", MulticastAddr, MulticastPort))
	if err != nil {
		return fmt.Errorf("resolving multicast address: %w", err)
	}

	if _, err := conn.WriteToUDP(payload, dest); err != nil {
		return fmt.Errorf("sending mDNS announcement: %w", err)
	}
	return nil
}

// Unregister is a no-op placeholder for a future "goodbye" packet; for
// now a node simply stops advertising.
func (t *UDPTransport) Unregister(ctx context.Context) error {
	return nil
}

func (t *UDPTransport) Discover(ctx context.Context, timeout time.Duration) ([]ServiceRecord, error) {
	addr, err := net.ResolveUDPAddr("udp4", t.bindAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving bind address: %w", err)
	}
	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("binding mDNS socket: %w", err)
	}
	defer conn.Close()

	group := net.ParseIP(MulticastAddr)
	if group == nil {
		return nil, fmt.Errorf("invalid multicast address %q", MulticastAddr)
	}
	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.JoinGroup(nil, &net.UDPAddr{IP: group}); err != nil {
		return nil, fmt.Errorf("joining multicast group: %w", err)
	}

	deadline := time.Now().Add(timeout)
	_ = conn.SetReadDeadline(deadline)

	buf := make([]byte, 4096)
	var records []ServiceRecord
	for {
		if time.Now().After(deadline) {
			break
		}
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			break // deadline exceeded or socket closed
		}
		var record ServiceRecord
		if err := json.Unmarshal(buf[:n], &record); err != nil {
			continue
		}
		if record.ServiceName == ServiceName {
			records = append(records, record)
		}
	}
	return records, nil
}
