package discovery

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"time"
)

// usnPattern extracts the device id from a Belkin socket USN
// (e.g., "uuid:Socket-1_0-3f2a9c1000::urn:Belkin:device:**")
var usnPattern = regexp.MustCompile(`^uuid:Socket-1_0-([^:]+)::`)

// Device represents a virtual device found on the network
type Device struct {
	// ID is the device identifier (e.g., "3f2a9c1000")
	ID string `json:"id"`

	// Name is the friendly name, only known for mDNS results
	Name string `json:"name,omitempty"`

	// IP is the advertised IPv4 address
	IP string `json:"ip"`

	// Port is the setup.xml port
	Port int `json:"port"`

	// Location is the setup.xml URL from the discovery response
	Location string `json:"location,omitempty"`

	// Server is the SERVER header of the discovery response
	Server string `json:"server,omitempty"`

	// Source is "ssdp" or "mdns"
	Source string `json:"source"`

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time `json:"discovered_at"`
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	if d.Name != "" {
		return fmt.Sprintf("Device %s (%s) at %s:%d", d.ID, d.Name, d.IP, d.Port)
	}
	return fmt.Sprintf("Device %s at %s:%d", d.ID, d.IP, d.Port)
}

// SetupURL returns the URL of the device description document
func (d *Device) SetupURL() string {
	if d.Location != "" {
		return d.Location
	}
	return fmt.Sprintf("http://%s/setup.xml", net.JoinHostPort(d.IP, strconv.Itoa(d.Port)))
}

// parseUSN returns the device id embedded in usn
func parseUSN(usn string) (string, bool) {
	m := usnPattern.FindStringSubmatch(usn)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}

// parseLocation splits a LOCATION URL into host and port
func parseLocation(location string) (string, int, error) {
	u, err := url.Parse(location)
	if err != nil {
		return "", 0, fmt.Errorf("invalid location %q: %w", location, err)
	}
	host := u.Hostname()
	if host == "" {
		return "", 0, fmt.Errorf("location %q has no host", location)
	}
	port := 80
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("location %q has invalid port: %w", location, err)
		}
	}
	return host, port, nil
}
