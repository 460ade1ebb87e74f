package responder

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"
)

type datagram struct {
	payload []byte
	from    *net.UDPAddr
	ifIndex int
}

type sentDatagram struct {
	payload []byte
	to      net.Addr
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// fakeConn is an in-memory PacketConn. Writes whose sequence number is in
// failWrites return an error.
type fakeConn struct {
	inbox chan datagram

	mu         sync.Mutex
	deadline   time.Time
	sent       []sentDatagram
	attempts   int
	failWrites map[int]bool

	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbox:      make(chan datagram, 16),
		failWrites: make(map[int]bool),
		closed:     make(chan struct{}),
	}
}

func (c *fakeConn) deliver(payload string, from *net.UDPAddr) {
	c.inbox <- datagram{payload: []byte(payload), from: from}
}

func (c *fakeConn) ReadFrom(b []byte) (int, int, net.Addr, error) {
	c.mu.Lock()
	deadline := c.deadline
	c.mu.Unlock()

	var timer <-chan time.Time
	if !deadline.IsZero() {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timer = t.C
	}

	select {
	case d := <-c.inbox:
		n := copy(b, d.payload)
		return n, d.ifIndex, d.from, nil
	case <-timer:
		return 0, 0, nil, timeoutError{}
	case <-c.closed:
		return 0, 0, nil, net.ErrClosed
	}
}

func (c *fakeConn) WriteTo(b []byte, addr net.Addr) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	seq := c.attempts
	c.attempts++
	if c.failWrites[seq] {
		return 0, errors.New("sendto: no buffer space available")
	}

	cp := make([]byte, len(b))
	copy(cp, b)
	c.sent = append(c.sent, sentDatagram{payload: cp, to: addr})
	return len(b), nil
}

func (c *fakeConn) SetReadDeadline(t time.Time) error {
	c.mu.Lock()
	c.deadline = t
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) sentCopy() []sentDatagram {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentDatagram, len(c.sent))
	copy(out, c.sent)
	return out
}

func (c *fakeConn) writeAttempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 1s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
