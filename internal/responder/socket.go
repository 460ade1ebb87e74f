package responder

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"github.com/muurk/wemo-ssdp/internal/logging"
	"github.com/muurk/wemo-ssdp/internal/netif"
	"github.com/muurk/wemo-ssdp/internal/ssdp"
)

// PacketConn is the listener's view of the discovery socket.
type PacketConn interface {
	// ReadFrom reads one datagram. ifIndex is the receiving interface,
	// 0 when unknown.
	ReadFrom(b []byte) (n int, ifIndex int, addr net.Addr, err error)
	WriteTo(b []byte, addr net.Addr) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// Opener creates and binds the discovery socket on port.
type Opener func(port int) (PacketConn, error)

// udpSocket is a UDPv4 socket joined to the SSDP multicast group.
type udpSocket struct {
	conn *ipv4.PacketConn
}

// OpenSocket binds UDPv4 on the wildcard address, enables receiving
// interface control messages and joins 239.255.255.250 on every multicast
// capable interface. Control message and group join failures are logged;
// only the bind itself is fatal.
func OpenSocket(port int) (PacketConn, error) {
	lc := net.ListenConfig{Control: reuseAddr}
	pc, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("", strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}

	conn := ipv4.NewPacketConn(pc)

	if err := conn.SetControlMessage(ipv4.FlagInterface, true); err != nil {
		logging.Debug("Interface control messages unavailable",
			zap.Error(err),
		)
	}

	group := &net.UDPAddr{IP: net.ParseIP(ssdp.MulticastAddr)}
	ifaces, err := netif.MulticastInterfaces()
	if err != nil {
		logging.Warn("Failed to list multicast interfaces", zap.Error(err))
	}
	joined := 0
	for i := range ifaces {
		if err := conn.JoinGroup(&ifaces[i], group); err != nil {
			logging.Debug("Failed to join SSDP multicast group",
				zap.String("interface", ifaces[i].Name),
				zap.Error(err),
			)
			continue
		}
		joined++
	}
	if joined == 0 {
		logging.Warn("Not joined to the SSDP multicast group on any interface; only unicast queries will arrive")
	}

	return &udpSocket{conn: conn}, nil
}

func (s *udpSocket) ReadFrom(b []byte) (int, int, net.Addr, error) {
	n, cm, src, err := s.conn.ReadFrom(b)
	ifIndex := 0
	if cm != nil {
		ifIndex = cm.IfIndex
	}
	return n, ifIndex, src, err
}

func (s *udpSocket) WriteTo(b []byte, addr net.Addr) (int, error) {
	return s.conn.WriteTo(b, nil, addr)
}

func (s *udpSocket) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

func (s *udpSocket) Close() error {
	return s.conn.Close()
}

// isTimeout reports whether err is a read deadline expiry
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
