package enip

import (
	"encoding/binary"
	"fmt"
)

// CPF item type IDs used by the implicit I/O path.
const (
	ItemIDSequencedAddress uint16 = 0x8002
	ItemIDConnectedData    uint16 = 0x00B1
)

// BuildOToTFrame builds the Common Packet Format datagram the originator
// sends to the target every RPI: a Sequenced Address item carrying the O→T
// connection id and SAI sequence, followed by a Connected Data item carrying
// the CTP sequence and the application bytes.
func BuildOToTFrame(connID uint32, saiSeq, ctpSeq uint16, app []byte) []byte {
	out := make([]byte, 0, 2+(4+8)+(4+2+len(app)))

	out = appendUint16(out, 2) // item count

	out = appendUint16(out, ItemIDSequencedAddress)
	out = appendUint16(out, 8)
	out = appendUint32(out, connID)
	out = appendUint16(out, saiSeq)
	out = appendUint16(out, 0)

	out = appendUint16(out, ItemIDConnectedData)
	out = appendUint16(out, uint16(2+len(app)))
	out = appendUint16(out, ctpSeq)
	out = append(out, app...)

	return out
}

// ParseTToOFrame extracts the application bytes from a Common Packet Format
// datagram received from the target. It follows the item list looking for a
// Connected Data (0x00B1) item of length >= 2 and strips its leading 2-byte
// CTP sequence. If the item list cannot be parsed but the datagram still has
// at least 2 bytes, it falls back to stripping the first 2 bytes of the raw
// datagram, mirroring how real drives occasionally send a bare sequence +
// payload with no CPF wrapper. Anything shorter yields (nil, false).
func ParseTToOFrame(datagram []byte) ([]byte, bool) {
	if app, ok := parseCPFConnectedData(datagram); ok {
		return app, true
	}
	if len(datagram) >= 2 {
		return datagram[2:], true
	}
	return nil, false
}

func parseCPFConnectedData(datagram []byte) ([]byte, bool) {
	if len(datagram) < 2 {
		return nil, false
	}
	count := binary.LittleEndian.Uint16(datagram[0:2])
	if count < 1 || count > 8 {
		return nil, false
	}

	offset := 2
	for i := 0; i < int(count); i++ {
		if offset+4 > len(datagram) {
			return nil, false
		}
		itemType := binary.LittleEndian.Uint16(datagram[offset : offset+2])
		itemLen := binary.LittleEndian.Uint16(datagram[offset+2 : offset+4])
		offset += 4

		if offset+int(itemLen) > len(datagram) {
			return nil, false
		}
		data := datagram[offset : offset+int(itemLen)]
		offset += int(itemLen)

		if itemType == ItemIDConnectedData && itemLen >= 2 {
			return data[2:], true
		}
	}
	return nil, false
}

// CPFItem is one entry returned by DecodeCPFItemList, the general-purpose
// CPF item iterator used by the ForwardOpen reply parser, which must look
// past arbitrary preceding items to find the CIP reply payload.
type CPFItem struct {
	Type uint16
	Data []byte
}

// DecodeCPFItemList decodes a CPF item-count-prefixed list from body.
func DecodeCPFItemList(body []byte) ([]CPFItem, error) {
	if len(body) < 2 {
		return nil, fmt.Errorf("enip: CPF body too short")
	}
	count := binary.LittleEndian.Uint16(body[0:2])
	offset := 2

	items := make([]CPFItem, 0, count)
	for i := 0; i < int(count); i++ {
		if offset+4 > len(body) {
			return nil, fmt.Errorf("enip: CPF item %d header truncated", i)
		}
		typ := binary.LittleEndian.Uint16(body[offset : offset+2])
		ln := binary.LittleEndian.Uint16(body[offset+2 : offset+4])
		offset += 4
		if offset+int(ln) > len(body) {
			return nil, fmt.Errorf("enip: CPF item %d data truncated", i)
		}
		items = append(items, CPFItem{Type: typ, Data: body[offset : offset+int(ln)]})
		offset += int(ln)
	}
	return items, nil
}

func appendUint16(dst []byte, v uint16) []byte {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return append(dst, b[:]...)
}

func appendUint32(dst []byte, v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return append(dst, b[:]...)
}
