package ssdp

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/muurk/wemo-ssdp/internal/device"
)

// responseTemplate takes ip, port, id, id.
const responseTemplate = "HTTP/1.1 200 OK\r\n" +
	"CACHE-CONTROL: max-age=86400\r\n" +
	"DATE: " + ResponseDate + "\r\n" +
	"EXT:\r\n" +
	"LOCATION: http://%s:%d/setup.xml\r\n" +
	"OPT: \"http://schemas.upnp.org/upnp/1/0/\"; ns=01\r\n" +
	"01-NLS: " + NLSPrefix + "%s\r\n" +
	"SERVER: " + ServerHeader + "\r\n" +
	"ST: " + DeviceTypeURN + "\r\n" +
	"USN: uuid:Socket-1_0-%s::" + DeviceTypeURN + "\r\n" +
	"X-User-Agent: " + UserAgent + "\r\n\r\n"

const (
	// templateVerbs is the number of substitution verbs in responseTemplate
	templateVerbs = 4

	// staticLength is the template length without its verbs
	staticLength = len(responseTemplate) - 2*templateVerbs

	maxIPLength   = len("255.255.255.255")
	maxPortDigits = len("65535")

	// MaxResponseSize fits any valid device record advertised on IPv4
	MaxResponseSize = staticLength + maxIPLength + maxPortDigits + 2*device.MaxIDLength
)

var (
	// ErrBufferTooSmall means the response would not fit the caller buffer
	ErrBufferTooSmall = errors.New("response buffer too small")
	// ErrInvalidPort means the advertised port is outside 0-65535
	ErrInvalidPort = errors.New("invalid port")
)

// BuildError reports a response that could not be built. Nothing was
// written to the buffer.
type BuildError struct {
	DeviceID string
	Required int
	Capacity int
	Err      error
}

// Error implements the error interface
func (e *BuildError) Error() string {
	if errors.Is(e.Err, ErrBufferTooSmall) {
		return fmt.Sprintf("build response for %s: %v (need %d bytes, have %d)", e.DeviceID, e.Err, e.Required, e.Capacity)
	}
	return fmt.Sprintf("build response for %s: %v", e.DeviceID, e.Err)
}

// Unwrap returns the underlying error
func (e *BuildError) Unwrap() error {
	return e.Err
}

// ResponseLength returns the exact length of the response for these values.
func ResponseLength(dev device.Record, ip string, port int) int {
	return staticLength + len(ip) + len(strconv.Itoa(port)) + 2*len(dev.ID)
}

// BuildResponse formats the discovery response for dev into buf and returns
// the number of bytes written. The response advertises
// http://<ip>:<port>/setup.xml.
//
// If the response needs more than len(buf) bytes a *BuildError wrapping
// ErrBufferTooSmall is returned and buf is left untouched.
func BuildResponse(buf []byte, dev device.Record, ip string, port int) (int, error) {
	if port < 0 || port > 65535 {
		return 0, &BuildError{DeviceID: dev.ID, Capacity: len(buf), Err: fmt.Errorf("%w: %d", ErrInvalidPort, port)}
	}

	required := ResponseLength(dev, ip, port)
	if required > len(buf) {
		return 0, &BuildError{
			DeviceID: dev.ID,
			Required: required,
			Capacity: len(buf),
			Err:      ErrBufferTooSmall,
		}
	}

	// Capacity is capped at len(buf) so the append can never reallocate.
	out := fmt.Appendf(buf[:0:len(buf)], responseTemplate, ip, port, dev.ID, dev.ID)
	return len(out), nil
}

// Response allocates a MaxResponseSize buffer and builds the response into
// it, returning exactly the response bytes.
func Response(dev device.Record, ip string, port int) ([]byte, error) {
	buf := make([]byte, MaxResponseSize)
	n, err := BuildResponse(buf, dev, ip, port)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
