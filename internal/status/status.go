// Package status decodes the Fixed-I/O status word out of a drive's T->O
// application bytes and tracks where in the buffer that word lives.
package status

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
)

// Bit positions within the little-endian Fixed-I/O status word.
const (
	BitSeqBsy  = 0
	BitMove    = 1
	BitInPos   = 2
	BitStartR  = 3
	BitHomeEnd = 4
	BitReady   = 5
	BitDcmdRdy = 6
	BitAlmA    = 7
)

// candidateOffsets are tried in order when the Fixed-I/O offset has not yet
// been locked in.
var candidateOffsets = []int{4, 8}

// Decoder holds the last observed T->O application bytes and the
// auto-detected Fixed-I/O offset. It is safe for concurrent use: Update is
// called by the UDP listener, the projection methods by the command engine.
type Decoder struct {
	mu     sync.RWMutex
	last   []byte
	offset int // 0 means "not yet locked in"
}

// NewDecoder returns a Decoder with no offset locked in yet.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Update stores bytes as the latest input and, if the offset has not been
// locked in, probes 4 then 8 for the first offset whose word has MOVE,
// IN-POS, or READY set.
func (d *Decoder) Update(bytes []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = append(d.last[:0:0], bytes...)

	if d.offset != 0 {
		return
	}
	for _, off := range candidateOffsets {
		if len(d.last) < off+2 {
			continue
		}
		word := binary.LittleEndian.Uint16(d.last[off : off+2])
		if word&(1<<BitMove|1<<BitInPos|1<<BitReady) != 0 {
			d.offset = off
			return
		}
	}
}

// readOffset returns the offset to use for reads: the locked-in one, or 4
// while still probing.
func (d *Decoder) readOffset() int {
	if d.offset != 0 {
		return d.offset
	}
	return 4
}

// FixedOut returns the 16-bit little-endian status word at the chosen
// offset, or 0 if the last input is too short.
func (d *Decoder) FixedOut() uint16 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	off := d.readOffset()
	if len(d.last) < off+2 {
		return 0
	}
	return binary.LittleEndian.Uint16(d.last[off : off+2])
}

// Offset reports the locked-in Fixed-I/O offset and whether one has been
// locked in yet.
func (d *Decoder) Offset() (int, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.offset, d.offset != 0
}

func bitSet(word uint16, bit int) bool {
	return word&(1<<uint(bit)) != 0
}

// InPos reports the IN-POS bit.
func (d *Decoder) InPos() bool { return bitSet(d.FixedOut(), BitInPos) }

// Move reports the MOVE bit.
func (d *Decoder) Move() bool { return bitSet(d.FixedOut(), BitMove) }

// Ready reports the READY bit.
func (d *Decoder) Ready() bool { return bitSet(d.FixedOut(), BitReady) }

// SeqBusy reports the SEQ-BSY bit.
func (d *Decoder) SeqBusy() bool { return bitSet(d.FixedOut(), BitSeqBsy) }

// Alarm reports the ALM-A bit.
func (d *Decoder) Alarm() bool { return bitSet(d.FixedOut(), BitAlmA) }

// LastInput returns a copy of the most recently observed application bytes.
func (d *Decoder) LastInput() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]byte(nil), d.last...)
}

// DebugString renders a human-readable one-liner of the last input: length,
// offset, the raw Fixed-I/O word, its bits MSB-to-LSB, and the full hex
// dump. It exists for ad hoc troubleshooting, not for any parsed format.
func (d *Decoder) DebugString() string {
	app := d.LastInput()
	d.mu.RLock()
	off := d.readOffset()
	d.mu.RUnlock()
	word := d.FixedOut()

	var bits strings.Builder
	for i := 15; i >= 0; i-- {
		if word&(1<<uint(i)) != 0 {
			bits.WriteByte('1')
		} else {
			bits.WriteByte('0')
		}
	}

	return fmt.Sprintf("app_len=%d off=%d fixed_out=0x%04X bits(MSB->LSB)=%s app_hex=%s",
		len(app), off, word, bits.String(), hex.EncodeToString(app))
}
