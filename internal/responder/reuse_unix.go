//go:build unix

package responder

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddr lets the responder share port 1900 with other SSDP stacks on the
// host (media servers, desktop UPnP daemons).
func reuseAddr(network, address string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
