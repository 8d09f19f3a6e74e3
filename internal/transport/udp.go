package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// ImplicitPort is the default Class-1 implicit I/O UDP port.
const ImplicitPort = 2222

// UDP is the shared implicit-I/O socket: one cyclic sender and one listener
// goroutine use it concurrently. It is deliberately left "unconnected" at
// the OS level (bound, not net.DialUDP'd) so both goroutines can call
// WriteToUDP/ReadFromUDP on it at once; the peer address is tracked
// ourselves instead of relying on a kernel-level UDP association.
type UDP struct {
	mu        sync.RWMutex
	conn      *net.UDPConn
	peer      *net.UDPAddr
	acceptAny bool
	localPort int
}

// NewUDP returns an unbound UDP transport; Bind later binds it to localPort
// (0 lets the OS choose) with SO_REUSEADDR set so a restarted process can
// rebind the implicit port immediately. acceptAny disables the peer-address filter on Receive,
// accepting datagrams from any source once the socket is bound.
func NewUDP(localPort int, acceptAny bool) *UDP {
	return &UDP{localPort: localPort, acceptAny: acceptAny}
}

// Bind opens the local UDP socket. It must be called before Send or Receive.
func (u *UDP) Bind() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn != nil {
		return fmt.Errorf("transport: UDP already bound")
	}

	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var ctrlErr error
			err := c.Control(func(fd uintptr) {
				ctrlErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			})
			if err != nil {
				return err
			}
			return ctrlErr
		},
	}

	pc, err := lc.ListenPacket(context.Background(), "udp4", fmt.Sprintf(":%d", u.localPort))
	if err != nil {
		return fmt.Errorf("transport: bind UDP :%d: %w", u.localPort, err)
	}
	conn, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return fmt.Errorf("transport: bound connection is not UDP")
	}
	u.conn = conn
	return nil
}

// SetPeer records the drive's implicit-I/O address on the well-known
// implicit port (2222). Called once ForwardOpen succeeds; before that, Send
// has no destination.
func (u *UDP) SetPeer(driveIP string) error {
	return u.SetPeerPort(driveIP, ImplicitPort)
}

// SetPeerPort is SetPeer with an explicit port, for tests that run a fake
// drive on an ephemeral UDP port.
func (u *UDP) SetPeerPort(driveIP string, port int) error {
	addr, err := net.ResolveUDPAddr("udp4", fmt.Sprintf("%s:%d", driveIP, port))
	if err != nil {
		return err
	}
	u.mu.Lock()
	u.peer = addr
	u.mu.Unlock()
	return nil
}

// Close closes the underlying socket. Safe to call when not bound.
func (u *UDP) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.conn == nil {
		return nil
	}
	err := u.conn.Close()
	u.conn = nil
	return err
}

// Send writes one datagram to the configured peer.
func (u *UDP) Send(data []byte) error {
	u.mu.RLock()
	conn, peer := u.conn, u.peer
	u.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("transport: UDP not bound")
	}
	if peer == nil {
		return fmt.Errorf("transport: UDP peer not set")
	}
	_, err := conn.WriteToUDP(data, peer)
	return err
}

// Receive blocks for at most timeout waiting for one datagram. It filters
// out datagrams from unexpected peers unless acceptAny is set. Read
// timeouts surface as a deadline-exceeded error, which callers treat as
// "nothing arrived this cycle," not a transport failure.
func (u *UDP) Receive(timeout time.Duration) ([]byte, error) {
	u.mu.RLock()
	conn, peer, acceptAny := u.conn, u.peer, u.acceptAny
	u.mu.RUnlock()
	if conn == nil {
		return nil, fmt.Errorf("transport: UDP not bound")
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	buf := make([]byte, 65535)
	for {
		n, from, err := conn.ReadFromUDP(buf)
		if err != nil {
			return nil, err
		}
		if !acceptAny && peer != nil && !from.IP.Equal(peer.IP) {
			continue
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, nil
	}
}

// IsBound reports whether the local socket is open.
func (u *UDP) IsBound() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.conn != nil
}

// LocalAddr returns the bound local address, or nil if the socket is not
// bound yet.
func (u *UDP) LocalAddr() *net.UDPAddr {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.conn == nil {
		return nil
	}
	addr, _ := u.conn.LocalAddr().(*net.UDPAddr)
	return addr
}

// PeerAddr returns the configured drive peer address, or nil if it has not
// been set yet (before ForwardOpen completes).
func (u *UDP) PeerAddr() *net.UDPAddr {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.peer
}
