package device

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
)

const (
	// BasePort is the server port of the first device; device i listens on
	// BasePort+i unless pinned in the config.
	BasePort = 5000

	// MaxIDLength bounds the identifier so responses fit ssdp.MaxResponseSize.
	MaxIDLength = 11

	// MaxDevices bounds the registry; ports above BasePort+MaxDevices are
	// never derived.
	MaxDevices = 16
)

var (
	// ErrIDTooLong is returned when an identifier exceeds MaxIDLength
	ErrIDTooLong = errors.New("device id too long")
	// ErrEmptyID is returned for records without an identifier
	ErrEmptyID = errors.New("device id is empty")
	// ErrDuplicateID is returned when two records share an identifier
	ErrDuplicateID = errors.New("duplicate device id")
	// ErrTooManyDevices is returned when a registry exceeds MaxDevices
	ErrTooManyDevices = errors.New("too many devices")
)

// Record describes one virtual device.
type Record struct {
	// ID is echoed into the 01-NLS and USN response headers
	ID string `json:"id"`
	// Name is the human friendly name (e.g., "Simulater 00")
	Name string `json:"name"`
	// Port is the TCP port of the device's setup.xml endpoint
	Port int `json:"port"`
}

// String returns a human-readable representation of the record
func (r Record) String() string {
	return fmt.Sprintf("%s (%s) port %d", r.Name, r.ID, r.Port)
}

// Validate checks the identifier and port bounds.
func (r Record) Validate() error {
	if r.ID == "" {
		return ErrEmptyID
	}
	if len(r.ID) > MaxIDLength {
		return fmt.Errorf("%w: %q is %d bytes (max %d)", ErrIDTooLong, r.ID, len(r.ID), MaxIDLength)
	}
	if r.Port <= 0 || r.Port > 65535 {
		return fmt.Errorf("device %s: invalid port %d", r.ID, r.Port)
	}
	return nil
}

// Registry is an ordered, immutable collection of records.
type Registry struct {
	records []Record
}

// NewRegistry validates records and returns a registry preserving their order.
// The slice is copied.
func NewRegistry(records []Record) (*Registry, error) {
	if len(records) > MaxDevices {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyDevices, len(records), MaxDevices)
	}

	seen := make(map[string]struct{}, len(records))
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("device %d: %w", i, err)
		}
		if _, dup := seen[r.ID]; dup {
			return nil, fmt.Errorf("device %d: %w: %s", i, ErrDuplicateID, r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	cp := make([]Record, len(records))
	copy(cp, records)
	return &Registry{records: cp}, nil
}

// Count returns the number of devices
func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	return len(r.records)
}

// Get returns the record at index i. It panics when i is out of range,
// like a slice index.
func (r *Registry) Get(i int) Record {
	return r.records[i]
}

// All returns a copy of the records in registry order
func (r *Registry) All() []Record {
	if r == nil {
		return nil
	}
	cp := make([]Record, len(r.records))
	copy(cp, r.records)
	return cp
}

// ServerPort derives the server port for the device at index i.
func ServerPort(i int) int {
	return BasePort + i
}

// MakeID formats an identifier from a host id and device index.
func MakeID(hostID uint32, index int) string {
	return fmt.Sprintf("%08x%02x", hostID, uint8(index))
}

// DefaultName returns the generated name for the device at index i.
func DefaultName(index int) string {
	return fmt.Sprintf("Simulater %02x", uint8(index))
}

// HostIDFromName derives a stable 32-bit host id from a name. The id is the
// leading four bytes of a SHA-1 name-based UUID.
func HostIDFromName(name string) uint32 {
	u := uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name))
	return binary.BigEndian.Uint32(u[:4])
}

// HostID derives the host id from the machine's hostname.
func HostID() (uint32, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return 0, fmt.Errorf("failed to read hostname: %w", err)
	}
	return HostIDFromName(hostname), nil
}

// Generate builds n default records for the given host id.
func Generate(hostID uint32, n int) []Record {
	records := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, Record{
			ID:   MakeID(hostID, i),
			Name: DefaultName(i),
			Port: ServerPort(i),
		})
	}
	return records
}
