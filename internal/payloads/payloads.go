// Package payloads holds the 44-byte command payloads the command engine
// asserts onto the O->T stream. The core treats every payload as an opaque
// blob; this package is the one place that knows what the bytes mean.
package payloads

import (
	"encoding/binary"
	"fmt"

	"github.com/tturner/motordrive/internal/wire"
)

// Size is the fixed O->T application payload length.
const Size = 44

// Command-word bit positions at CommandWordOffset.
const (
	BitFWJog = 0
	BitStart = 3
	BitStop  = 5
	BitFree  = 6
)

// CommandWordOffset and OpSelectOffset are the two fields within the 44-byte
// payload that the command engine's built-in payload set actually varies;
// everything else stays zeroed.
const (
	CommandWordOffset = 10
	OpSelectOffset    = 4
)

// Payload is a single 44-byte command assertion.
type Payload [Size]byte

// Bytes returns a copy of the payload as a slice, matching the shape the
// cyclic sender and command engine pass around.
func (p Payload) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, p[:])
	return out
}

func withCommandBit(bit int) Payload {
	var p Payload
	binary.LittleEndian.PutUint16(p[CommandWordOffset:CommandWordOffset+2], 1<<uint(bit))
	return p
}

func withCommandBitAndOp(bit int, opSelect uint16) Payload {
	p := withCommandBit(bit)
	binary.LittleEndian.PutUint16(p[OpSelectOffset:OpSelectOffset+2], opSelect)
	return p
}

// Default payloads. OP-1 and OP-2 differ only in the operation-select word;
// the two variants found in field captures disagreed on its exact value, so
// this set is one concrete, self-consistent choice, not a protocol fact.
//
// Trigger and Detrigger have no literal blob in the source material either;
// Trigger reuses the START bit and Detrigger is the all-zero idle frame as
// stand-ins until a real drive profile supplies its own hex blobs via
// config overrides.
var (
	Jog       = withCommandBit(BitFWJog)
	Stop      = withCommandBit(BitStop)
	Op1Start  = withCommandBitAndOp(BitStart, 0x0000)
	Op2Start  = withCommandBitAndOp(BitStart, 0x0001)
	Free      = withCommandBit(BitFree)
	NoOp      = Payload{}
	Trigger   = withCommandBit(BitStart)
	Detrigger = Payload{}
)

// Set is the named table of payloads a command engine operates over. It is
// ordinary configuration: callers may build one from defaults, from a YAML
// config's hex blobs, or a mix of both.
type Set struct {
	Jog       Payload
	Stop      Payload
	Op        map[int]Payload
	Trigger   Payload
	Detrigger Payload
	Free      Payload
	NoOp      Payload
}

// DefaultSet returns the built-in payload table with Op-1 and Op-2 defined.
func DefaultSet() Set {
	return Set{
		Jog:       Jog,
		Stop:      Stop,
		Op:        map[int]Payload{1: Op1Start, 2: Op2Start},
		Trigger:   Trigger,
		Detrigger: Detrigger,
		Free:      Free,
		NoOp:      NoOp,
	}
}

// FromHex parses a hex-encoded 44-byte blob (spaced or packed) into a
// Payload, enforcing the fixed size at load time the way startup
// configuration constants must.
func FromHex(hexBlob string) (Payload, error) {
	var p Payload
	raw, err := wire.ParseHexBlob(hexBlob)
	if err != nil {
		return p, fmt.Errorf("payloads: %w", err)
	}
	if len(raw) != Size {
		return p, fmt.Errorf("payloads: payload must be exactly %d bytes, got %d", Size, len(raw))
	}
	copy(p[:], raw)
	return p, nil
}

// OpPayload returns the operation-N payload, or false if no such operation is
// configured.
func (s Set) OpPayload(n int) (Payload, bool) {
	p, ok := s.Op[n]
	return p, ok
}
