package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/wemo-ssdp/internal/device"
	"github.com/muurk/wemo-ssdp/internal/logging"
)

const (
	// ServiceType is the mDNS service type used for virtual devices
	ServiceType = "_wemo._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for mDNS browsing
	DefaultScanTimeout = 3 * time.Second
)

// Server is a running mDNS registration
type Server interface {
	Shutdown()
}

// registerFunc is replaced in tests
var registerFunc = func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (Server, error) {
	srv, err := zeroconf.Register(instance, service, domain, port, text, ifaces)
	if err != nil {
		return nil, err
	}
	return srv, nil
}

// Announcer publishes the device registry over mDNS
type Announcer struct {
	mu      sync.Mutex
	servers []Server
}

// NewAnnouncer creates an announcer with nothing published
func NewAnnouncer() *Announcer {
	return &Announcer{}
}

// Announce publishes one service per device, replacing any earlier
// announcement. ifaces may be nil to use all interfaces.
func (a *Announcer) Announce(reg *device.Registry, ifaces []net.Interface) error {
	a.Shutdown()

	servers := make([]Server, 0, reg.Count())
	for _, dev := range reg.All() {
		text := []string{
			"id=" + dev.ID,
			"path=/setup.xml",
		}
		srv, err := registerFunc(dev.Name, ServiceType, ServiceDomain, dev.Port, text, ifaces)
		if err != nil {
			for _, s := range servers {
				s.Shutdown()
			}
			return fmt.Errorf("failed to announce %s: %w", dev, err)
		}
		logging.Debug("Announced device over mDNS",
			zap.String("device_id", dev.ID),
			zap.String("name", dev.Name),
			zap.Int("port", dev.Port),
		)
		servers = append(servers, srv)
	}

	a.mu.Lock()
	a.servers = servers
	a.mu.Unlock()

	logging.Info("mDNS announcement active", zap.Int("devices", len(servers)))
	return nil
}

// Count returns the number of published services
func (a *Announcer) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.servers)
}

// Shutdown withdraws all published services. Safe to call repeatedly.
func (a *Announcer) Shutdown() {
	a.mu.Lock()
	servers := a.servers
	a.servers = nil
	a.mu.Unlock()

	for _, s := range servers {
		s.Shutdown()
	}
}

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForDevices browses for announced devices until the timeout expires
func (s *Scanner) ScanForDevices(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu      sync.Mutex
		devices []*Device
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			dev := parseServiceEntry(entry)
			if dev == nil {
				continue
			}
			mu.Lock()
			devices = append(devices, dev)
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Device(nil), devices...), nil
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Returns nil if the entry carries no device id or address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	id := metadata["id"]
	if id == "" {
		return nil
	}

	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" {
		return nil
	}

	return &Device{
		ID:           id,
		Name:         entry.Instance,
		IP:           ip,
		Port:         entry.Port,
		Source:       "mdns",
		DiscoveredAt: time.Now(),
	}
}
