// Package handshake builds and parses the two requests that establish a
// Class-1 implicit connection to a drive: RegisterSession and ForwardOpen.
// It is a pure codec layer; it does not open sockets or wait for replies.
package handshake

import (
	"encoding/binary"
	"fmt"

	"github.com/tturner/motordrive/internal/enip"
)

// ConnectionParams describes the Forward_Open connection being requested.
// These values are baked into the canned template at build time; nothing
// here is re-derived once the template exists.
type ConnectionParams struct {
	Priority              string // "low", "scheduled", "high", "urgent"
	TimeoutSec            uint16
	OToTRPIMs             uint32
	TToORPIMs             uint32
	OToTSizeBytes         int
	TToOSizeBytes         int
	TransportClassTrigger byte
	ConnectionPath        []byte // raw EPATH bytes, e.g. {0x20,0x04,0x24,0x65}
}

// CIP service/class constants for the Connection Manager object.
const (
	serviceForwardOpen = 0x54
	cmClass            = 0x06
	cmInstance         = 0x01
)

func priorityByte(p string) byte {
	switch p {
	case "low":
		return 0x00
	case "high":
		return 0x02
	case "urgent":
		return 0x03
	default:
		return 0x01 // scheduled
	}
}

func connectionSizeBits(size int) uint32 {
	switch {
	case size <= 8:
		return 0x00 << 2
	case size <= 16:
		return 0x01 << 2
	case size <= 32:
		return 0x02 << 2
	default:
		return 0x03 << 2
	}
}

// BuildForwardOpenTemplate builds the full encapsulated ForwardOpen request
// (SendRRData over an Unconnected Send path) with the session handle left
// zero. Callers patch the handle in with PatchSessionHandle before sending;
// the core never looks inside this blob again.
func BuildForwardOpenTemplate(p ConnectionParams) []byte {
	var cip []byte
	cip = append(cip, serviceForwardOpen)
	cip = append(cip, 0x02) // connection manager path size (words)
	cip = append(cip, 0x20, cmClass, 0x24, cmInstance)

	pb := priorityByte(p.Priority)
	cip = append(cip, pb)

	cip = appendU16(cip, p.TimeoutSec)

	oToTParams := uint32(0x00000001) | uint32(pb)<<1 | connectionSizeBits(p.OToTSizeBytes)
	cip = appendU32(cip, p.OToTRPIMs*1000)
	cip = appendU32(cip, oToTParams)

	tToOParams := uint32(0x00000001) | uint32(pb)<<1 | connectionSizeBits(p.TToOSizeBytes)
	cip = appendU32(cip, p.TToORPIMs*1000)
	cip = appendU32(cip, tToOParams)

	transportByte := p.TransportClassTrigger
	if transportByte == 0 {
		transportByte = 0x03 // cyclic, class 3
	}
	cip = append(cip, transportByte)

	path := p.ConnectionPath
	pathWords := len(path) / 2
	if len(path)%2 != 0 {
		pathWords++
	}
	cip = append(cip, byte(pathWords))
	cip = append(cip, path...)
	if len(path)%2 != 0 {
		cip = append(cip, 0x00)
	}

	// Wrap as an Unconnected Data item inside a two-item CPF body (Null
	// Address item first, as every Unconnected Request requires).
	var cpf []byte
	cpf = appendU16(cpf, 2) // item count
	cpf = appendU16(cpf, 0x0000)
	cpf = appendU16(cpf, 0) // Null Address item, zero length
	cpf = appendU16(cpf, 0x00B2)
	cpf = appendU16(cpf, uint16(len(cip)))
	cpf = append(cpf, cip...)

	body := make([]byte, 0, 6+len(cpf))
	body = append(body, 0, 0, 0, 0) // interface handle
	body = append(body, 0, 0)       // timeout
	body = append(body, cpf...)

	h := enip.Header{
		Command: enip.CommandSendRRData,
		Length:  uint16(len(body)),
	}
	return append(h.Bytes(), body...)
}

// PatchSessionHandle returns a copy of template with bytes 4..7 (the
// encapsulation header's session handle field) overwritten.
func PatchSessionHandle(template []byte, sessionHandle uint32) []byte {
	out := make([]byte, len(template))
	copy(out, template)
	if len(out) >= 8 {
		binary.LittleEndian.PutUint32(out[4:8], sessionHandle)
	}
	return out
}

// ParseForwardOpenReply extracts the O->T connection id from a ForwardOpen
// reply, following the encapsulation header, the CPF item list, and the
// CIP reply's own status/path framing.
func ParseForwardOpenReply(reply []byte) (connID uint32, err error) {
	if len(reply) < int(enip.HeaderSize) {
		return 0, fmt.Errorf("handshake: ForwardOpen reply shorter than header")
	}
	status := binary.LittleEndian.Uint32(reply[8:12])
	if status != enip.StatusSuccess {
		return 0, fmt.Errorf("handshake: ForwardOpen encapsulation status 0x%08X", status)
	}
	ln := binary.LittleEndian.Uint16(reply[2:4])
	if len(reply) < int(enip.HeaderSize)+int(ln) {
		return 0, fmt.Errorf("handshake: ForwardOpen reply body shorter than declared length")
	}
	body := reply[enip.HeaderSize : int(enip.HeaderSize)+int(ln)]
	if len(body) < 6 {
		return 0, fmt.Errorf("handshake: ForwardOpen reply body too short")
	}
	body = body[6:] // interface handle + timeout

	items, err := enip.DecodeCPFItemList(body)
	if err != nil {
		return 0, fmt.Errorf("handshake: %w", err)
	}

	var cipReply []byte
	for _, item := range items {
		if item.Type == 0x00B2 || item.Type == 0x00B0 {
			cipReply = item.Data
			break
		}
	}
	if cipReply == nil {
		return 0, fmt.Errorf("handshake: ForwardOpen reply had no CIP data item")
	}
	return parseCIPForwardOpenReply(cipReply)
}

func parseCIPForwardOpenReply(cipReply []byte) (uint32, error) {
	if len(cipReply) < 2 {
		return 0, fmt.Errorf("handshake: CIP reply too short")
	}
	pathWords := int(cipReply[1])
	genStatusOffset := 2 + 2*pathWords
	if len(cipReply) < genStatusOffset+2 {
		return 0, fmt.Errorf("handshake: CIP reply too short for general status")
	}
	generalStatus := cipReply[genStatusOffset]
	if generalStatus != 0 {
		return 0, fmt.Errorf("handshake: ForwardOpen general status 0x%02X", generalStatus)
	}
	additionalStatusWords := int(cipReply[genStatusOffset+1])
	connIDOffset := genStatusOffset + 2 + 2*additionalStatusWords
	if len(cipReply) < connIDOffset+4 {
		return 0, fmt.Errorf("handshake: CIP reply too short for connection id")
	}
	connID := binary.LittleEndian.Uint32(cipReply[connIDOffset : connIDOffset+4])
	if connID == 0 {
		return 0, fmt.Errorf("handshake: ForwardOpen returned a zero connection id")
	}
	return connID, nil
}

func appendU16(dst []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(dst, b[:]...)
}

func appendU32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}
