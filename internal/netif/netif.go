// Package netif picks the local IPv4 address advertised in discovery
// responses. On a host with several interfaces the LOCATION URL must be
// reachable from the querying peer, so the interface whose subnet contains
// the peer wins and the primary interface is the fallback.
package netif

import (
	"errors"
	"fmt"
	"net"
)

// ErrNoAddress is returned when no usable IPv4 interface exists
var ErrNoAddress = errors.New("no usable IPv4 address")

// Candidate is one local IPv4 address and the network it sits on.
type Candidate struct {
	Name    string
	Index   int
	IP      net.IP
	Network *net.IPNet
}

// Contains reports whether peer is on the candidate's subnet
func (c Candidate) Contains(peer net.IP) bool {
	return c.Network != nil && peer != nil && c.Network.Contains(peer)
}

// Resolver returns the local IP to advertise to peer. ifIndex is the
// receiving interface, 0 when unknown.
type Resolver interface {
	LocalIP(peer net.IP, ifIndex int) (net.IP, error)
}

// SelectIP returns the IP of the first candidate whose subnet contains peer,
// or primary's IP when none does.
func SelectIP(candidates []Candidate, primary Candidate, peer net.IP) net.IP {
	for _, c := range candidates {
		if c.Contains(peer) {
			return c.IP
		}
	}
	return primary.IP
}

// StaticResolver always advertises the same address.
type StaticResolver struct {
	IP net.IP
}

// LocalIP implements Resolver
func (s StaticResolver) LocalIP(net.IP, int) (net.IP, error) {
	if s.IP == nil || s.IP.To4() == nil {
		return nil, fmt.Errorf("%w: static address %v is not IPv4", ErrNoAddress, s.IP)
	}
	return s.IP.To4(), nil
}

// SystemResolver inspects the host's interfaces on every call.
type SystemResolver struct {
	// Primary names the default interface; empty means the receiving
	// interface, then the first candidate.
	Primary string
	// DualInterface enables subnet matching against the peer
	DualInterface bool

	// interfaces is swapped in tests
	interfaces func() ([]Candidate, error)
}

// NewSystemResolver returns a resolver over the live interface table.
func NewSystemResolver(primary string, dual bool) *SystemResolver {
	return &SystemResolver{
		Primary:       primary,
		DualInterface: dual,
		interfaces:    Candidates,
	}
}

// LocalIP implements Resolver
func (r *SystemResolver) LocalIP(peer net.IP, ifIndex int) (net.IP, error) {
	list := r.interfaces
	if list == nil {
		list = Candidates
	}
	candidates, err := list()
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoAddress
	}

	primary, err := r.primary(candidates, ifIndex)
	if err != nil {
		return nil, err
	}

	if !r.DualInterface {
		return primary.IP, nil
	}
	return SelectIP(candidates, primary, peer), nil
}

func (r *SystemResolver) primary(candidates []Candidate, ifIndex int) (Candidate, error) {
	if r.Primary != "" {
		for _, c := range candidates {
			if c.Name == r.Primary {
				return c, nil
			}
		}
		return Candidate{}, fmt.Errorf("%w on interface %s", ErrNoAddress, r.Primary)
	}
	if ifIndex > 0 {
		for _, c := range candidates {
			if c.Index == ifIndex {
				return c, nil
			}
		}
	}
	return candidates[0], nil
}

// Candidates lists IPv4 addresses of interfaces that are up and not
// loopback, in interface order.
func Candidates() ([]Candidate, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var out []Candidate
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil {
				continue
			}
			out = append(out, Candidate{
				Name:    iface.Name,
				Index:   iface.Index,
				IP:      ip4,
				Network: &net.IPNet{IP: ip4.Mask(ipnet.Mask), Mask: ipnet.Mask},
			})
		}
	}
	return out, nil
}

// MulticastInterfaces lists interfaces that are up and multicast capable.
func MulticastInterfaces() ([]net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}
	var out []net.Interface
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp != 0 && iface.Flags&net.FlagMulticast != 0 {
			out = append(out, iface)
		}
	}
	return out, nil
}
