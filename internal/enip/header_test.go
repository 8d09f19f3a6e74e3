package enip

import (
	"bytes"
	"testing"
)

func TestBuildRegisterSessionRequestIsTwentyEightBytes(t *testing.T) {
	req := BuildRegisterSessionRequest()
	if len(req) != 28 {
		t.Fatalf("expected 28 bytes, got %d", len(req))
	}
	if Command(req[0])|Command(req[1])<<8 != CommandRegisterSession {
		t.Fatalf("unexpected command bytes: %v", req[0:2])
	}
}

func TestHeaderEncodeDecodeRoundTrip(t *testing.T) {
	h := Header{
		Command:       CommandSendUnitData,
		Length:        4,
		SessionHandle: 0x11223344,
		Status:        0,
	}
	buf := new(bytes.Buffer)
	if err := h.Encode(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got Header
	if err := got.Decode(buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.SessionHandle != h.SessionHandle || got.Command != h.Command {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, h)
	}
}

func TestParseRegisterSessionResponseSuccess(t *testing.T) {
	reply := make([]byte, 28)
	reply[4], reply[5], reply[6], reply[7] = 0x44, 0x33, 0x22, 0x11
	handle, err := ParseRegisterSessionResponse(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if handle != 0x11223344 {
		t.Fatalf("got 0x%08X, want 0x11223344", handle)
	}
}

func TestParseRegisterSessionResponseZeroHandleFails(t *testing.T) {
	reply := make([]byte, 28)
	if _, err := ParseRegisterSessionResponse(reply); err == nil {
		t.Fatalf("expected failure for zero session handle")
	}
}

func TestParseRegisterSessionResponseTooShort(t *testing.T) {
	if _, err := ParseRegisterSessionResponse(make([]byte, 4)); err == nil {
		t.Fatalf("expected failure for short reply")
	}
}

func TestBuildSendUnitDataWrapsPayload(t *testing.T) {
	cpf := []byte{0xAA, 0xBB}
	out := BuildSendUnitData(0xCAFEBABE, cpf)
	if len(out) != HeaderSize+6+len(cpf) {
		t.Fatalf("unexpected length %d", len(out))
	}
	var h Header
	if err := h.Decode(bytes.NewReader(out[:HeaderSize])); err != nil {
		t.Fatalf("decode header: %v", err)
	}
	if h.Command != CommandSendUnitData || h.SessionHandle != 0xCAFEBABE {
		t.Fatalf("unexpected header: %+v", h)
	}
}
