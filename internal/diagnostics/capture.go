// Package diagnostics optionally records the O->T/T->O UDP stream to a
// pcapng file for offline inspection. It is not on the hot path: the
// cyclic sender and listener call Recorder.Write only when a capture file
// was configured.
package diagnostics

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Recorder writes synthetic Ethernet/IPv4/UDP frames wrapping the raw
// application datagrams exchanged with the drive, so a capture can be
// opened in any standard pcapng viewer even though nothing here touches a
// live network interface.
type Recorder struct {
	file   *os.File
	writer *pcapgo.NgWriter
	srcMAC net.HardwareAddr
	dstMAC net.HardwareAddr
}

// NewRecorder creates path and writes the pcapng file header.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: create capture file: %w", err)
	}
	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("diagnostics: write capture header: %w", err)
	}
	return &Recorder{
		file:   f,
		writer: w,
		srcMAC: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01},
		dstMAC: net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x02},
	}, nil
}

// Write appends one UDP datagram, reconstructed as a full Ethernet frame so
// that wire inspection tools can decode it without special handling.
func (r *Recorder) Write(srcIP, dstIP net.IP, srcPort, dstPort int, payload []byte, at time.Time) error {
	eth := &layers.Ethernet{
		SrcMAC:       r.srcMAC,
		DstMAC:       r.dstMAC,
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolUDP,
		SrcIP:    srcIP,
		DstIP:    dstIP,
	}
	udp := &layers.UDP{
		SrcPort: layers.UDPPort(srcPort),
		DstPort: layers.UDPPort(dstPort),
	}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return fmt.Errorf("diagnostics: set checksum layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{ComputeChecksums: true, FixLengths: true}
	if err := gopacket.SerializeLayers(buf, opts, eth, ip, udp, gopacket.Payload(payload)); err != nil {
		return fmt.Errorf("diagnostics: serialize packet: %w", err)
	}

	ci := gopacket.CaptureInfo{
		Timestamp:     at,
		CaptureLength: len(buf.Bytes()),
		Length:        len(buf.Bytes()),
	}
	return r.writer.WritePacket(ci, buf.Bytes())
}

// Close flushes and closes the capture file.
func (r *Recorder) Close() error {
	if err := r.writer.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("diagnostics: flush capture: %w", err)
	}
	return r.file.Close()
}
