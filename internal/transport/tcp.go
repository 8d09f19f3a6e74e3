// Package transport provides the TCP control-channel and shared UDP
// implicit-I/O sockets used to talk to a drive.
package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"time"
)

// ControlPort is the well-known EtherNet/IP TCP port for explicit messaging.
const ControlPort = 44818

// TCP is the control-channel transport: RegisterSession, ForwardOpen, and
// (when mirroring is enabled) a copy of every O->T frame as SendUnitData.
type TCP struct {
	mu   sync.RWMutex
	conn *net.TCPConn
}

// NewTCP returns an unconnected TCP transport.
func NewTCP() *TCP {
	return &TCP{}
}

// Connect dials the drive's explicit-messaging port (44818).
func (t *TCP) Connect(ctx context.Context, driveIP string) error {
	return t.ConnectPort(ctx, driveIP, ControlPort)
}

// ConnectPort dials driveIP on an explicit port. iosession.Session calls it
// with ControlPort unless its options override the port, which tests do to
// point at a loopback listener bound to an ephemeral port.
func (t *TCP) ConnectPort(ctx context.Context, driveIP string, port int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return fmt.Errorf("transport: TCP already connected")
	}

	dialer := net.Dialer{Timeout: 5 * time.Second}
	addr := fmt.Sprintf("%s:%d", driveIP, port)
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		conn.Close()
		return fmt.Errorf("transport: dialed connection is not TCP")
	}
	if err := tcpConn.SetKeepAlive(true); err != nil {
		tcpConn.Close()
		return err
	}
	t.conn = tcpConn
	return nil
}

// Close tears down the TCP connection. Safe to call when not connected.
func (t *TCP) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// Send writes a full request, honoring ctx's deadline if one is set.
func (t *TCP) Send(ctx context.Context, data []byte) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conn == nil {
		return fmt.Errorf("transport: TCP not connected")
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetWriteDeadline(deadline); err != nil {
			return err
		}
	}
	_, err := t.conn.Write(data)
	return err
}

// Receive reads one full encapsulated reply: the 24-byte header followed by
// the body length it declares.
func (t *TCP) Receive(ctx context.Context, timeout time.Duration) ([]byte, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.conn == nil {
		return nil, fmt.Errorf("transport: TCP not connected")
	}

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	header := make([]byte, 24)
	if _, err := readFull(t.conn, header); err != nil {
		return nil, fmt.Errorf("transport: read header: %w", err)
	}
	length := binary.LittleEndian.Uint16(header[2:4])
	if length == 0 {
		return header, nil
	}
	body := make([]byte, length)
	if _, err := readFull(t.conn, body); err != nil {
		return nil, fmt.Errorf("transport: read body: %w", err)
	}
	return append(header, body...), nil
}

// IsConnected reports whether the TCP socket is currently open.
func (t *TCP) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.conn != nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
