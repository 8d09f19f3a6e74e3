package transport

import (
	"net"
	"testing"
	"time"
)

func TestUDPSendWithoutBindFails(t *testing.T) {
	u := NewUDP(0, true)
	if err := u.Send([]byte{0x01}); err == nil {
		t.Fatalf("expected error sending on unbound socket")
	}
}

func TestUDPReceiveWithoutBindFails(t *testing.T) {
	u := NewUDP(0, true)
	if _, err := u.Receive(10 * time.Millisecond); err == nil {
		t.Fatalf("expected error receiving on unbound socket")
	}
}

func TestUDPLoopbackRoundTrip(t *testing.T) {
	server := NewUDP(0, true)
	if err := server.Bind(); err != nil {
		t.Fatalf("bind server: %v", err)
	}
	defer server.Close()

	client := NewUDP(0, true)
	if err := client.Bind(); err != nil {
		t.Fatalf("bind client: %v", err)
	}
	defer client.Close()

	serverPort := server.conn.LocalAddr().(*net.UDPAddr).Port
	if err := client.SetPeer("127.0.0.1"); err != nil {
		t.Fatalf("set peer: %v", err)
	}
	client.peer.Port = serverPort

	if err := client.Send([]byte("hello")); err != nil {
		t.Fatalf("send: %v", err)
	}

	got, err := server.Receive(2 * time.Second)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestUDPReceiveFiltersUnexpectedPeer(t *testing.T) {
	server := NewUDP(0, false)
	if err := server.Bind(); err != nil {
		t.Fatalf("bind server: %v", err)
	}
	defer server.Close()
	if err := server.SetPeer("127.0.0.1"); err != nil {
		t.Fatalf("set peer: %v", err)
	}
	server.peer.Port = 1 // a peer that will never send anything

	if _, err := server.Receive(50 * time.Millisecond); err == nil {
		t.Fatalf("expected timeout since no datagram matches the configured peer")
	}
}
