package responder

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/muurk/wemo-ssdp/internal/device"
	"github.com/muurk/wemo-ssdp/internal/logging"
	"github.com/muurk/wemo-ssdp/internal/netif"
	"github.com/muurk/wemo-ssdp/internal/ssdp"
)

const (
	// MaxRetries is the default number of socket open retries
	MaxRetries = 20

	// RetryDelay is the default delay between socket open attempts
	RetryDelay = 1 * time.Second
)

// Config holds the listener settings
type Config struct {
	// Port is the UDP port to bind (ssdp.Port in production)
	Port int
	// Targets are the accepted search targets; empty accepts any M-SEARCH
	Targets []string
	// ReceiveTimeout bounds each receive; 0 blocks until a datagram or Stop
	ReceiveTimeout time.Duration
	// MaxRetries is the number of retries after the first failed open
	MaxRetries uint64
	// RetryDelay is the constant delay between open attempts
	RetryDelay time.Duration
}

// DefaultConfig returns the reference settings
func DefaultConfig() Config {
	return Config{
		Port:           ssdp.Port,
		Targets:        []string{ssdp.TargetBelkin, ssdp.TargetAll},
		ReceiveTimeout: time.Second,
		MaxRetries:     MaxRetries,
		RetryDelay:     RetryDelay,
	}
}

// Stats are cumulative counters of one listener
type Stats struct {
	Received uint64
	Accepted uint64
	Rejected uint64
	Sent     uint64
	Failed   uint64
}

// Listener answers M-SEARCH queries for the devices of a registry.
type Listener struct {
	cfg      Config
	registry *device.Registry
	resolver netif.Resolver
	open     Opener

	received atomic.Uint64
	accepted atomic.Uint64
	rejected atomic.Uint64
	sent     atomic.Uint64
	failed   atomic.Uint64
}

// Option configures a Listener
type Option func(*Listener)

// WithOpener replaces the socket opener (tests use an in-memory conn)
func WithOpener(open Opener) Option {
	return func(l *Listener) {
		l.open = open
	}
}

// NewListener creates a listener. The registry must not change while the
// listener runs.
func NewListener(cfg Config, registry *device.Registry, resolver netif.Resolver, opts ...Option) *Listener {
	l := &Listener{
		cfg:      cfg,
		registry: registry,
		resolver: resolver,
		open:     OpenSocket,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Stats returns a snapshot of the listener counters
func (l *Listener) Stats() Stats {
	return Stats{
		Received: l.received.Load(),
		Accepted: l.accepted.Load(),
		Rejected: l.rejected.Load(),
		Sent:     l.sent.Load(),
		Failed:   l.failed.Load(),
	}
}

// Run opens the socket and serves queries until ctx is canceled. It returns
// a *StartupError when the socket cannot be opened, nil after a clean stop.
func (l *Listener) Run(ctx context.Context) error {
	conn, err := l.acquire(ctx)
	if err != nil {
		return err
	}
	if conn == nil {
		return nil
	}
	// Closing the socket on cancel unblocks a receive with no timeout
	closeOnCancel := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer func() {
		if !closeOnCancel() {
			return
		}
		if err := conn.Close(); err != nil {
			logging.Warn("Error closing discovery socket", zap.Error(err))
		}
	}()

	logging.Info("SSDP responder listening",
		zap.Int("port", l.cfg.Port),
		zap.Strings("targets", l.cfg.Targets),
		zap.Int("devices", l.registry.Count()),
		zap.Duration("receive_timeout", l.cfg.ReceiveTimeout),
	)

	err = l.serve(ctx, conn)
	logging.Info("SSDP responder stopped",
		zap.Uint64("queries", l.received.Load()),
		zap.Uint64("responses", l.sent.Load()),
	)
	return err
}

// acquire opens the socket, retrying with a constant delay. A nil conn and
// nil error mean ctx was canceled before the socket opened.
func (l *Listener) acquire(ctx context.Context) (PacketConn, error) {
	var conn PacketConn
	attempts := 0

	operation := func() error {
		attempts++
		c, err := l.open(l.cfg.Port)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}

	var policy backoff.BackOff = &backoff.StopBackOff{}
	if l.cfg.MaxRetries > 0 {
		policy = backoff.WithMaxRetries(backoff.NewConstantBackOff(l.cfg.RetryDelay), l.cfg.MaxRetries)
	}

	notify := func(err error, next time.Duration) {
		logging.Warn("Failed to open discovery socket, retrying",
			zap.Int("port", l.cfg.Port),
			zap.Int("attempt", attempts),
			zap.Duration("retry_in", next),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(operation, backoff.WithContext(policy, ctx), notify); err != nil {
		if ctx.Err() != nil {
			logging.Info("Stopped while opening discovery socket",
				zap.Int("port", l.cfg.Port),
				zap.Int("attempts", attempts),
			)
			return nil, nil
		}
		startErr := &StartupError{Port: l.cfg.Port, Attempts: attempts, Err: err}
		logging.Error("Discovery socket unavailable", zap.Error(startErr))
		return nil, startErr
	}
	return conn, nil
}

// serve is the receive loop. Cancellation is checked once per iteration and
// whenever a receive fails, since cancel closes the socket.
func (l *Listener) serve(ctx context.Context, conn PacketConn) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		query, err := l.receive(conn)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if isTimeout(err) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("discovery socket closed: %w", err)
			}
			logging.Warn("Error receiving datagram", zap.Error(err))
			continue
		}
		if query == nil {
			continue
		}

		l.handle(conn, query)
	}
}

// receive reads one datagram into a fresh buffer. It returns a nil query
// for empty datagrams.
func (l *Listener) receive(conn PacketConn) (*ssdp.Query, error) {
	if l.cfg.ReceiveTimeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(l.cfg.ReceiveTimeout)); err != nil {
			return nil, fmt.Errorf("failed to set read deadline: %w", err)
		}
	}

	buf := make([]byte, ssdp.MaxQuerySize)
	n, ifIndex, addr, err := conn.ReadFrom(buf)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, nil
	}

	peer, ok := addr.(*net.UDPAddr)
	if !ok {
		peer, err = net.ResolveUDPAddr("udp4", addr.String())
		if err != nil {
			return nil, fmt.Errorf("unexpected peer address %v: %w", addr, err)
		}
	}

	return &ssdp.Query{Payload: buf[:n], Peer: peer, IfIndex: ifIndex}, nil
}

// handle validates one query and sends a response per device.
func (l *Listener) handle(conn PacketConn, q *ssdp.Query) {
	l.received.Add(1)
	peer := q.Peer.String()
	logging.LogDatagram("received", peer, q.Payload)

	if !ssdp.Validate(q.Payload, l.cfg.Targets) {
		l.rejected.Add(1)
		logging.Debug("Ignoring datagram that is not a matching M-SEARCH", zap.String("peer", peer))
		logging.LogRawBytes("Rejected datagram", q.Payload)
		return
	}
	l.accepted.Add(1)

	ip, err := l.resolver.LocalIP(q.Peer.IP, q.IfIndex)
	if err != nil {
		logging.Warn("Cannot determine address to advertise, ignoring query",
			zap.String("peer", peer),
			zap.Int("if_index", q.IfIndex),
			zap.Error(err),
		)
		return
	}
	advertised := ip.String()

	logging.Info("Answering M-SEARCH",
		zap.String("peer", peer),
		zap.String("advertised_ip", advertised),
		zap.Int("devices", l.registry.Count()),
	)

	buf := make([]byte, ssdp.MaxResponseSize)
	for i := 0; i < l.registry.Count(); i++ {
		dev := l.registry.Get(i)

		n, err := ssdp.BuildResponse(buf, dev, advertised, dev.Port)
		if err != nil {
			l.failed.Add(1)
			logging.Error("Failed to build discovery response",
				zap.String("device_id", dev.ID),
				zap.Error(err),
			)
			continue
		}

		if _, err := conn.WriteTo(buf[:n], q.Peer); err != nil {
			l.failed.Add(1)
			logging.Warn("Failed to send discovery response",
				zap.String("peer", peer),
				zap.String("device_id", dev.ID),
				zap.Error(err),
			)
			continue
		}

		l.sent.Add(1)
		logging.LogDatagram("sent", peer, buf[:n])
	}
}
