package ssdp

import (
	"bytes"
	"net"
)

// Required literal markers of an M-SEARCH we answer.
var (
	requestLine = []byte("M-SEARCH * HTTP/1.1")
	hostHeader  = []byte("HOST: " + MulticastAddr + ":1900")
	manHeader   = []byte(`MAN: "ssdp:discover"`)
	stHeader    = []byte("ST:")
)

// Query is one received datagram.
type Query struct {
	Payload []byte
	Peer    *net.UDPAddr
	// IfIndex is the receiving interface, 0 when unknown
	IfIndex int
}

// Validate reports whether payload is an M-SEARCH matching one of targets.
// An empty targets list accepts any M-SEARCH carrying the three required
// markers. Each call scans the whole buffer; nothing is retained.
func Validate(payload []byte, targets []string) bool {
	if len(payload) == 0 {
		return false
	}

	for _, marker := range [][]byte{requestLine, hostHeader, manHeader} {
		if !bytes.Contains(payload, marker) {
			return false
		}
	}

	if len(targets) == 0 {
		return true
	}

	st, ok := SearchTarget(payload)
	if !ok {
		return false
	}
	for _, target := range targets {
		if target != "" && bytes.HasPrefix(st, []byte(target)) {
			return true
		}
	}
	return false
}

// SearchTarget returns the value of the ST header with leading spaces
// removed. The value runs to the end of the buffer; callers match prefixes.
// Only an "ST:" at the start of a line counts, so "HOST:" is never mistaken
// for it.
func SearchTarget(payload []byte) ([]byte, bool) {
	offset := 0
	for {
		i := bytes.Index(payload[offset:], stHeader)
		if i < 0 {
			return nil, false
		}
		i += offset
		if i == 0 || payload[i-1] == '\n' {
			value := payload[i+len(stHeader):]
			return bytes.TrimLeft(value, " "), true
		}
		offset = i + len(stHeader)
	}
}
