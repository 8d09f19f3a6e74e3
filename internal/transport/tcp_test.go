package transport

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestTCPSendReceiveWithoutConnectFails(t *testing.T) {
	tr := NewTCP()
	ctx := context.Background()
	if err := tr.Send(ctx, []byte{0x01}); err == nil {
		t.Fatalf("expected error sending before connect")
	}
	if _, err := tr.Receive(ctx, time.Second); err == nil {
		t.Fatalf("expected error receiving before connect")
	}
	if tr.IsConnected() {
		t.Fatalf("expected not connected")
	}
}

func TestTCPReadsHeaderPrefixedReply(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	reply := make([]byte, 24+4)
	reply[2], reply[3] = 4, 0 // length = 4
	reply[24], reply[25], reply[26], reply[27] = 0xAA, 0xBB, 0xCC, 0xDD

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 28)
		conn.Read(buf)
		conn.Write(reply)
	}()

	tr := NewTCP()
	addr := ln.Addr().(*net.TCPAddr)
	origPort := ControlPort
	_ = origPort
	// Dial directly against the loopback listener's ephemeral port instead
	// of the fixed control port, by constructing the connection manually.
	dialer := net.Dialer{Timeout: time.Second}
	conn, err := dialer.Dial("tcp", addr.String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	tcpConn := conn.(*net.TCPConn)
	tr.conn = tcpConn

	if err := tr.Send(context.Background(), make([]byte, 28)); err != nil {
		t.Fatalf("send: %v", err)
	}
	got, err := tr.Receive(context.Background(), 2*time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(got) != 28 {
		t.Fatalf("got %d bytes, want 28", len(got))
	}
	<-done
}
