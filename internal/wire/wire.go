// Package wire provides little-endian field helpers, literal byte-blob
// parsing, and pad/truncate, used by the payloads and iosession packages.
package wire

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

// PutUint16 writes a little-endian uint16 to dst.
func PutUint16(dst []byte, value uint16) {
	binary.LittleEndian.PutUint16(dst, value)
}

// PutUint32 writes a little-endian uint32 to dst.
func PutUint32(dst []byte, value uint32) {
	binary.LittleEndian.PutUint32(dst, value)
}

// AppendUint16 appends a little-endian uint16 to dst.
func AppendUint16(dst []byte, value uint16) []byte {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], value)
	return append(dst, buf[:]...)
}

// AppendUint32 appends a little-endian uint32 to dst.
func AppendUint32(dst []byte, value uint32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return append(dst, buf[:]...)
}

// Uint16 reads a little-endian uint16 from the front of b.
func Uint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

// Uint32 reads a little-endian uint32 from the front of b.
func Uint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// ParseHexBlob parses a literal byte blob such as "00 11 22" or "001122" into
// raw bytes. Whitespace between byte pairs is optional and ignored.
func ParseHexBlob(s string) ([]byte, error) {
	clean := strings.ReplaceAll(s, " ", "")
	clean = strings.ReplaceAll(clean, "\n", "")
	clean = strings.ReplaceAll(clean, "\t", "")
	if len(clean)%2 != 0 {
		return nil, fmt.Errorf("wire: hex blob must have an even number of digits")
	}
	b, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("wire: invalid hex blob: %w", err)
	}
	return b, nil
}

// PadTruncate right-pads src with zeros or truncates it so the result is
// exactly size bytes long. The input is never mutated.
func PadTruncate(src []byte, size int) []byte {
	out := make([]byte, size)
	copy(out, src)
	return out
}
