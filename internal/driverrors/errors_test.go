package driverrors

import (
	"errors"
	"strings"
	"testing"
)

func TestUserFriendlyErrorFormatting(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := WrapHandshake(base, "192.168.0.20")

	msg := err.Error()
	if !strings.Contains(msg, "192.168.0.20") {
		t.Fatalf("expected drive IP in message, got: %q", msg)
	}
	if !strings.Contains(msg, "connection refused") {
		t.Fatalf("expected classified reason, got: %q", msg)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected Unwrap to expose base error")
	}
}

func TestWrapHandshakeNilIsNil(t *testing.T) {
	if WrapHandshake(nil, "x") != nil {
		t.Fatalf("expected nil passthrough")
	}
}

func TestWrapConfigIncludesField(t *testing.T) {
	err := WrapConfig(errors.New("bad value"), "rpi_ms")
	if !strings.Contains(err.Error(), "rpi_ms") {
		t.Fatalf("expected field name in message: %q", err.Error())
	}
}

func TestSentinelErrorsDistinct(t *testing.T) {
	if errors.Is(ErrNotConnected, ErrTimeout) {
		t.Fatalf("sentinels must be distinct")
	}
}
