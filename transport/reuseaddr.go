package transport

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenUDPReusable opens a UDP socket bound to addr with SO_REUSEADDR and
// SO_REUSEPORT set on a best-effort basis. Exported so erci's raw-frame
// client/simulator, which does not go through Transport's wire.Registry
// framing, can still open its socket the same way.
func ListenUDPReusable(addr string) (*net.UDPConn, error) {
	return listenUDPReusable(addr)
}

// listenUDPReusable opens a UDP socket bound to addr with SO_REUSEADDR and
// SO_REUSEPORT set on a best-effort basis, the same way openSocket does in
// the source protocol (it ignores setsockopt failures rather than
// treating them as fatal). The unix.SetsockoptInt call mirrors the pattern
// ptp4u's server worker uses to mark its sockets reusable.
func listenUDPReusable(addr string) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}
	pc, err := lc.ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, err
	}
	return pc.(*net.UDPConn), nil
}
