package config

import (
	"fmt"
	"net"
	"time"

	"github.com/muurk/wemo-ssdp/internal/device"
	"github.com/muurk/wemo-ssdp/internal/netif"
	"github.com/muurk/wemo-ssdp/internal/responder"
	"github.com/muurk/wemo-ssdp/internal/ssdp"
)

// CurrentVersion is the config schema version written by Save
const CurrentVersion = 1

// DefaultDeviceCount is the number of devices generated for a new config
const DefaultDeviceCount = 1

// Config represents the entire configuration file.
type Config struct {
	Version   int             `yaml:"version"`
	Responder ResponderConfig `yaml:"responder"`
	Devices   []DeviceConfig  `yaml:"devices"`
}

// ResponderConfig holds the discovery listener settings.
type ResponderConfig struct {
	Port           int      `yaml:"port"`                   // UDP port (1900)
	ReceiveTimeout Duration `yaml:"receive_timeout"`        // Bounds each receive so stop is noticed
	Targets        []string `yaml:"targets"`                // Search target families ("alexa", "hass")
	AdvertiseIP    string   `yaml:"advertise_ip,omitempty"` // Fixed IP; disables interface selection
	Interface      string   `yaml:"interface,omitempty"`    // Primary interface name
	DualInterface  bool     `yaml:"dual_interface"`         // Pick the interface on the peer's subnet
	MDNS           bool     `yaml:"mdns"`                   // Also announce devices over mDNS
	MaxRetries     uint64   `yaml:"max_retries"`            // Socket open retries
	RetryDelay     Duration `yaml:"retry_delay"`            // Delay between socket open attempts
}

// DeviceConfig describes one virtual device. Empty fields are derived from
// the device's position in the list.
type DeviceConfig struct {
	Name string `yaml:"name,omitempty"` // Human friendly name
	ID   string `yaml:"id,omitempty"`   // Identifier echoed in responses
	Port int    `yaml:"port,omitempty"` // setup.xml port, BasePort+index when 0
}

// Duration is a time.Duration written as a string ("5s") in YAML.
type Duration time.Duration

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Default returns a config with the reference responder settings and
// DefaultDeviceCount generated devices.
func Default() *Config {
	devices := make([]DeviceConfig, DefaultDeviceCount)
	for i := range devices {
		devices[i] = DeviceConfig{Name: device.DefaultName(i)}
	}

	return &Config{
		Version: CurrentVersion,
		Responder: ResponderConfig{
			Port:           ssdp.Port,
			ReceiveTimeout: Duration(time.Second),
			Targets:        append([]string(nil), ssdp.DefaultFamilies...),
			MaxRetries:     responder.MaxRetries,
			RetryDelay:     Duration(responder.RetryDelay),
		},
		Devices: devices,
	}
}

// Validate checks the settings that cannot be repaired with defaults.
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}

	r := c.Responder
	if r.Port <= 0 || r.Port > 65535 {
		return fmt.Errorf("responder.port: invalid port %d", r.Port)
	}
	if r.ReceiveTimeout < 0 {
		return fmt.Errorf("responder.receive_timeout: must not be negative")
	}
	if r.RetryDelay < 0 {
		return fmt.Errorf("responder.retry_delay: must not be negative")
	}
	if _, err := ssdp.TargetsFor(r.Targets); err != nil {
		return fmt.Errorf("responder.targets: %w", err)
	}
	if r.AdvertiseIP != "" {
		ip := net.ParseIP(r.AdvertiseIP)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("responder.advertise_ip: %q is not an IPv4 address", r.AdvertiseIP)
		}
	}
	if len(c.Devices) > device.MaxDevices {
		return fmt.Errorf("devices: %d configured (max %d)", len(c.Devices), device.MaxDevices)
	}
	return nil
}

// Records resolves the device list into records, deriving missing ids,
// names and ports from hostID and the list index.
func (c *Config) Records(hostID uint32) []device.Record {
	records := make([]device.Record, 0, len(c.Devices))
	for i, d := range c.Devices {
		r := device.Record{ID: d.ID, Name: d.Name, Port: d.Port}
		if r.ID == "" {
			r.ID = device.MakeID(hostID, i)
		}
		if r.Name == "" {
			r.Name = device.DefaultName(i)
		}
		if r.Port == 0 {
			r.Port = device.ServerPort(i)
		}
		records = append(records, r)
	}
	return records
}

// Registry validates the resolved records and builds a device registry.
func (c *Config) Registry(hostID uint32) (*device.Registry, error) {
	reg, err := device.NewRegistry(c.Records(hostID))
	if err != nil {
		return nil, fmt.Errorf("invalid device table: %w", err)
	}
	return reg, nil
}

// ListenerConfig converts the responder settings for the listener.
func (c *Config) ListenerConfig() (responder.Config, error) {
	targets, err := ssdp.TargetsFor(c.Responder.Targets)
	if err != nil {
		return responder.Config{}, err
	}
	return responder.Config{
		Port:           c.Responder.Port,
		Targets:        targets,
		ReceiveTimeout: time.Duration(c.Responder.ReceiveTimeout),
		MaxRetries:     c.Responder.MaxRetries,
		RetryDelay:     time.Duration(c.Responder.RetryDelay),
	}, nil
}

// Resolver returns the address resolver for the responder settings. A fixed
// advertise_ip takes precedence over interface selection.
func (c *Config) Resolver() netif.Resolver {
	if c.Responder.AdvertiseIP != "" {
		return netif.StaticResolver{IP: net.ParseIP(c.Responder.AdvertiseIP)}
	}
	return netif.NewSystemResolver(c.Responder.Interface, c.Responder.DualInterface)
}
