package enip

import (
	"bytes"
	"testing"
)

func TestBuildParseOToTFrameRoundTrip(t *testing.T) {
	app := []byte{0x01, 0x02, 0x03, 0x04}
	frame := BuildOToTFrame(0x0A0B0C0D, 7, 9, app)

	got, ok := ParseTToOFrame(frame)
	if !ok {
		t.Fatalf("expected successful parse")
	}
	// BuildOToTFrame and ParseTToOFrame describe opposite directions, but the
	// wire shape of the Connected Data item is identical, so a frame built
	// for O->T parses back to the same application bytes a T->O frame would.
	if !bytes.Equal(got, app) {
		t.Fatalf("got %v, want %v", got, app)
	}
}

func TestBuildOToTFrameRoundTripEmptyApp(t *testing.T) {
	frame := BuildOToTFrame(1, 0, 0, nil)
	got, ok := ParseTToOFrame(frame)
	if !ok {
		t.Fatalf("expected successful parse")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty app bytes, got %v", got)
	}
}

func TestParseTToOFrameRejectsBadItemCount(t *testing.T) {
	// item count 0 is invalid (must be 1..8), but the datagram is long
	// enough that the fallback (strip first 2 bytes) kicks in.
	datagram := []byte{0x00, 0x00, 0xAA, 0xBB, 0xCC}
	got, ok := ParseTToOFrame(datagram)
	if !ok {
		t.Fatalf("expected fallback parse to succeed")
	}
	if !bytes.Equal(got, []byte{0xAA, 0xBB, 0xCC}) {
		t.Fatalf("unexpected fallback result: %v", got)
	}
}

func TestParseTToOFrameTooShortFails(t *testing.T) {
	if _, ok := ParseTToOFrame([]byte{0x01}); ok {
		t.Fatalf("expected failure for single-byte datagram")
	}
	if _, ok := ParseTToOFrame(nil); ok {
		t.Fatalf("expected failure for empty datagram")
	}
}

func TestParseTToOFrameFindsItemPastOthers(t *testing.T) {
	var frame []byte
	frame = appendUint16(frame, 2)
	// First item: Sequenced Address (not what we want).
	frame = appendUint16(frame, ItemIDSequencedAddress)
	frame = appendUint16(frame, 8)
	frame = appendUint32(frame, 0xDEADBEEF)
	frame = appendUint16(frame, 1)
	frame = appendUint16(frame, 0)
	// Second item: Connected Data.
	app := []byte{0x10, 0x20}
	frame = appendUint16(frame, ItemIDConnectedData)
	frame = appendUint16(frame, uint16(2+len(app)))
	frame = appendUint16(frame, 42)
	frame = append(frame, app...)

	got, ok := ParseTToOFrame(frame)
	if !ok {
		t.Fatalf("expected parse success")
	}
	if !bytes.Equal(got, app) {
		t.Fatalf("got %v, want %v", got, app)
	}
}

func TestDecodeCPFItemListTruncatedHeader(t *testing.T) {
	body := []byte{0x01, 0x00, 0x00, 0x00}
	if _, err := DecodeCPFItemList(body); err == nil {
		t.Fatalf("expected error for truncated item header")
	}
}

func TestDecodeCPFItemListTruncatedData(t *testing.T) {
	var body []byte
	body = appendUint16(body, 1)
	body = appendUint16(body, 0x00B2)
	body = appendUint16(body, 10) // claims 10 bytes but none follow
	if _, err := DecodeCPFItemList(body); err == nil {
		t.Fatalf("expected error for truncated item data")
	}
}
