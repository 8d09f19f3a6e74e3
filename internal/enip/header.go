// Package enip implements the EtherNet/IP encapsulation layer: the 24-byte
// header, RegisterSession/SendUnitData framing, and the Common Packet Format
// (CPF) item codec used by both the TCP control channel and the UDP implicit
// I/O stream.
package enip

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// HeaderSize is the fixed size of the encapsulation header.
const HeaderSize = 24

// Command identifies an EtherNet/IP encapsulation command.
type Command uint16

const (
	CommandRegisterSession   Command = 0x0065
	CommandUnregisterSession Command = 0x0066
	CommandSendRRData        Command = 0x006F
	CommandSendUnitData      Command = 0x0070
)

func (c Command) String() string {
	switch c {
	case CommandRegisterSession:
		return "RegisterSession"
	case CommandUnregisterSession:
		return "UnregisterSession"
	case CommandSendRRData:
		return "SendRRData"
	case CommandSendUnitData:
		return "SendUnitData"
	default:
		return fmt.Sprintf("UnknownCommand(0x%04X)", uint16(c))
	}
}

// StatusSuccess is the only status value that does not indicate failure.
const StatusSuccess uint32 = 0

// Header is the 24-byte EtherNet/IP encapsulation header, always
// little-endian on the wire.
type Header struct {
	Command       Command
	Length        uint16
	SessionHandle uint32
	Status        uint32
	SenderContext [8]byte
	Options       uint32
}

// Encode writes the header to w.
func (h *Header) Encode(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, h)
}

// Decode reads the header from r.
func (h *Header) Decode(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, h)
}

// Bytes returns the encoded header.
func (h *Header) Bytes() []byte {
	buf := new(bytes.Buffer)
	_ = h.Encode(buf)
	return buf.Bytes()
}

// RegisterSessionPayload is the 4-byte body of a RegisterSession command.
type RegisterSessionPayload struct {
	ProtocolVersion uint16
	OptionsFlags    uint16
}

// Encode returns the wire form of the RegisterSession body.
func (p RegisterSessionPayload) Encode() []byte {
	buf := new(bytes.Buffer)
	_ = binary.Write(buf, binary.LittleEndian, p)
	return buf.Bytes()
}

// DefaultRegisterSessionPayload is the payload every RegisterSession request
// sends: protocol version 1, no options.
func DefaultRegisterSessionPayload() RegisterSessionPayload {
	return RegisterSessionPayload{ProtocolVersion: 1, OptionsFlags: 0}
}

// BuildRegisterSessionRequest builds the full encapsulated RegisterSession
// request: a 24-byte header plus its 4-byte payload, exactly 28 bytes.
func BuildRegisterSessionRequest() []byte {
	payload := DefaultRegisterSessionPayload().Encode()
	h := Header{
		Command: CommandRegisterSession,
		Length:  uint16(len(payload)),
	}
	return append(h.Bytes(), payload...)
}

// ParseRegisterSessionResponse extracts the session handle from a
// RegisterSession reply. A reply shorter than 8 bytes, or one in which the
// returned handle is zero, is a handshake failure.
func ParseRegisterSessionResponse(reply []byte) (sessionHandle uint32, err error) {
	if len(reply) < 8 {
		return 0, fmt.Errorf("enip: RegisterSession reply too short (%d bytes)", len(reply))
	}
	handle := binary.LittleEndian.Uint32(reply[4:8])
	if handle == 0 {
		return 0, fmt.Errorf("enip: RegisterSession returned a zero session handle")
	}
	return handle, nil
}

// BuildSendUnitData wraps cpfData as a connected-messaging SendUnitData
// encapsulation, used only when mirror-over-TCP diagnostics are enabled.
func BuildSendUnitData(sessionHandle uint32, cpfData []byte) []byte {
	body := make([]byte, 0, 6+len(cpfData))
	body = append(body, 0, 0, 0, 0) // interface handle = 0
	body = append(body, 0, 0)       // timeout = 0
	body = append(body, cpfData...)

	h := Header{
		Command:       CommandSendUnitData,
		Length:        uint16(len(body)),
		SessionHandle: sessionHandle,
	}
	return append(h.Bytes(), body...)
}
