package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "drive.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, "drive_ip: 192.168.0.20\nrpi_ms: 10\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ListenPort != 2222 || cfg.OToTSizeBytes != 44 || cfg.TToOSizeBytes != 44 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadRejectsMissingDriveIP(t *testing.T) {
	path := writeTempConfig(t, "rpi_ms: 10\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for missing drive_ip")
	}
}

func TestLoadRejectsBadIP(t *testing.T) {
	path := writeTempConfig(t, "drive_ip: not-an-ip\nrpi_ms: 10\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid drive_ip")
	}
}

func TestLoadRejectsZeroRPI(t *testing.T) {
	path := writeTempConfig(t, "drive_ip: 192.168.0.20\nrpi_ms: 0\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for rpi_ms 0")
	}
}

func TestLoadRejectsBadFixedOutOffset(t *testing.T) {
	path := writeTempConfig(t, "drive_ip: 192.168.0.20\nrpi_ms: 10\nfixed_out_offset: \"6\"\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for invalid fixed_out_offset")
	}
}

func TestResolvedOffsetAuto(t *testing.T) {
	cfg := Default()
	cfg.DriveIP = "10.0.0.1"
	off, auto := cfg.ResolvedOffset()
	if !auto || off != FixedOutOffsetAuto {
		t.Fatalf("expected auto-detect by default, got off=%d auto=%v", off, auto)
	}
}

func TestResolvedOffsetPinned(t *testing.T) {
	cfg := Default()
	cfg.FixedOutOffset = "8"
	off, auto := cfg.ResolvedOffset()
	if auto || off != 8 {
		t.Fatalf("expected pinned offset 8, got off=%d auto=%v", off, auto)
	}
}

func TestLoadAppliesCaptureFile(t *testing.T) {
	path := writeTempConfig(t, "drive_ip: 192.168.0.20\nrpi_ms: 10\ncapture_file: /tmp/drive.pcapng\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CaptureFile != "/tmp/drive.pcapng" {
		t.Fatalf("expected capture_file to round-trip, got %q", cfg.CaptureFile)
	}
}

func TestLoadMissingFileWrapsConfigError(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
