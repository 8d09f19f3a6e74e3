package diagnostics

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

func TestRecorderWritesReadablePcapng(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcapng")
	rec, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	err = rec.Write(net.ParseIP("192.168.0.1"), net.ParseIP("192.168.0.20"), 2222, 2222, payload, time.Now())
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("reopen capture: %v", err)
	}
	defer f.Close()

	r, err := pcapgo.NewNgReader(f, pcapgo.DefaultNgReaderOptions)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}

	data, _, err := r.ReadPacketData()
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	pkt := gopacket.NewPacket(data, layers.LayerTypeEthernet, gopacket.Default)
	udpLayer := pkt.Layer(layers.LayerTypeUDP)
	if udpLayer == nil {
		t.Fatalf("expected a UDP layer in the recorded packet")
	}
	udp := udpLayer.(*layers.UDP)
	if udp.SrcPort != 2222 || udp.DstPort != 2222 {
		t.Fatalf("unexpected ports: src=%d dst=%d", udp.SrcPort, udp.DstPort)
	}
	if string(udp.Payload) != string(payload) {
		t.Fatalf("got payload %v, want %v", udp.Payload, payload)
	}
}
