package ssdp

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// Port is the well-known SSDP port
	Port = 1900

	// MulticastAddr is the SSDP IPv4 multicast group
	MulticastAddr = "239.255.255.250"

	// MaxQuerySize bounds the receive buffer; longer datagrams are truncated
	// by the socket and still validated on what was read.
	MaxQuerySize = 160
)

// Search targets of the emulated ecosystems.
const (
	// TargetBelkin is sent by Alexa-style discovery of Belkin sockets
	TargetBelkin = "urn:Belkin:device:**"
	// TargetAll is sent by Home Assistant and generic UPnP browsers
	TargetAll = "ssdp:all"
)

// Vendor strings embedded in every response.
const (
	DeviceTypeURN = "urn:Belkin:device:**"
	ServerHeader  = "Unspecified, UPnP/1.0, Unspecified"
	UserAgent     = "redsonic"
	NLSPrefix     = "b9200ebb-736d-4b93-bf03-"
	ResponseDate  = "Sat, 26 Nov 2016 04:56:29 GMT"
)

// Families maps configuration names to the search target they accept.
var Families = map[string]string{
	"alexa": TargetBelkin,
	"hass":  TargetAll,
}

// DefaultFamilies are enabled in a new configuration. An empty family list
// accepts every M-SEARCH.
var DefaultFamilies = []string{"alexa", "hass"}

// TargetsFor resolves family names to search targets, preserving order and
// dropping duplicates.
func TargetsFor(families []string) ([]string, error) {
	targets := make([]string, 0, len(families))
	seen := make(map[string]bool, len(families))
	for _, name := range families {
		target, ok := Families[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown search target family %q (known: %s)", name, strings.Join(FamilyNames(), ", "))
		}
		if seen[target] {
			continue
		}
		seen[target] = true
		targets = append(targets, target)
	}
	return targets, nil
}

// FamilyNames returns the known family names, sorted
func FamilyNames() []string {
	names := make([]string, 0, len(Families))
	for name := range Families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
