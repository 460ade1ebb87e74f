package discovery

import (
	"fmt"
	"sort"
	"time"

	"github.com/koron/go-ssdp"
	"go.uber.org/zap"

	"github.com/muurk/wemo-ssdp/internal/logging"
)

// DefaultProbeWait is how long Probe collects responses
const DefaultProbeWait = 3 * time.Second

// searchFunc is replaced in tests
var searchFunc = ssdp.Search

// Probe sends an M-SEARCH for target and returns the devices that answered
// with a Belkin socket USN, sorted by id. Responses from other UPnP devices
// are skipped. localAddr may be empty to search on all interfaces.
func Probe(target string, wait time.Duration, localAddr string) ([]*Device, error) {
	waitSec := int(wait / time.Second)
	if waitSec < 1 {
		waitSec = 1
	}

	logging.Debug("Sending M-SEARCH",
		zap.String("target", target),
		zap.Int("wait_seconds", waitSec),
		zap.String("local_addr", localAddr),
	)

	services, err := searchFunc(target, waitSec, localAddr)
	if err != nil {
		return nil, fmt.Errorf("M-SEARCH failed: %w", err)
	}

	seen := make(map[string]bool)
	devices := make([]*Device, 0, len(services))
	for _, svc := range services {
		dev := parseService(svc)
		if dev == nil {
			logging.Debug("Skipping non-matching response", zap.String("usn", svc.USN))
			continue
		}
		key := dev.ID + "@" + dev.IP
		if seen[key] {
			continue
		}
		seen[key] = true
		devices = append(devices, dev)
	}

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].ID != devices[j].ID {
			return devices[i].ID < devices[j].ID
		}
		return devices[i].IP < devices[j].IP
	})

	logging.Info("Probe complete",
		zap.Int("responses", len(services)),
		zap.Int("devices", len(devices)),
	)
	return devices, nil
}

// parseService converts an SSDP search response to a Device.
// Returns nil if the response is not from a virtual socket.
func parseService(svc ssdp.Service) *Device {
	id, ok := parseUSN(svc.USN)
	if !ok {
		return nil
	}

	ip, port, err := parseLocation(svc.Location)
	if err != nil {
		logging.Debug("Ignoring response with bad location", zap.String("usn", svc.USN), zap.Error(err))
		return nil
	}

	return &Device{
		ID:           id,
		IP:           ip,
		Port:         port,
		Location:     svc.Location,
		Server:       svc.Server,
		Source:       "ssdp",
		DiscoveredAt: time.Now(),
	}
}
