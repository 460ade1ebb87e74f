//go:build !unix

package responder

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
