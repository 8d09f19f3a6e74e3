// Package config loads and validates the YAML configuration that describes
// a single drive connection.
package config

import (
	"fmt"
	"net"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tturner/motordrive/internal/driverrors"
)

// FixedOutOffsetAuto is what ResolvedOffset reports for an "auto" (or
// empty) fixed_out_offset. The setting is validated and resolved here only:
// nothing passes it on to the session, whose status decoder always
// auto-detects the offset, so "4" and "8" do not pin it.
const FixedOutOffsetAuto = 0

// PayloadConfig holds optional hex overrides for the built-in payload
// table. Any field left empty keeps the package default.
type PayloadConfig struct {
	JogHex       string         `yaml:"jog_hex,omitempty"`
	StopHex      string         `yaml:"stop_hex,omitempty"`
	FreeHex      string         `yaml:"free_hex,omitempty"`
	NoOpHex      string         `yaml:"no_op_hex,omitempty"`
	TriggerHex   string         `yaml:"trigger_hex,omitempty"`
	DetriggerHex string         `yaml:"detrigger_hex,omitempty"`
	OperationHex map[int]string `yaml:"operation_hex,omitempty"`
}

// Config is the full connection configuration for one drive.
type Config struct {
	DriveIP        string        `yaml:"drive_ip"`
	RPIMs          int           `yaml:"rpi_ms"`
	FixedOutOffset string        `yaml:"fixed_out_offset,omitempty"` // "auto", "4", or "8"
	MirrorOverTCP  bool          `yaml:"mirror_over_tcp,omitempty"`
	ListenPort     int           `yaml:"listen_port,omitempty"`
	OToTSizeBytes  int           `yaml:"o_to_t_size_bytes,omitempty"`
	TToOSizeBytes  int           `yaml:"t_to_o_size_bytes,omitempty"`
	AcceptAnyPeer  bool          `yaml:"accept_any_peer,omitempty"`
	CaptureFile    string        `yaml:"capture_file,omitempty"`
	Payloads       PayloadConfig `yaml:"payloads,omitempty"`
}

// Default returns a Config with every optional field filled in.
func Default() Config {
	return Config{
		RPIMs:          20,
		FixedOutOffset: "auto",
		ListenPort:     2222,
		OToTSizeBytes:  44,
		TToOSizeBytes:  44,
	}
}

// Load reads and validates a YAML config file, filling in defaults for
// anything left unset.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, driverrors.WrapConfig(err, path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, driverrors.WrapConfig(fmt.Errorf("parse YAML: %w", err), path)
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, driverrors.WrapConfig(err, path)
	}
	return cfg, nil
}

// Validate checks field values and fills in the handful of zero-value
// defaults that Load's struct-literal defaults can't express (because the
// YAML unmarshal overwrites them with the zero value when the key is
// present but empty).
func Validate(cfg *Config) error {
	if cfg.DriveIP == "" {
		return fmt.Errorf("drive_ip is required")
	}
	if net.ParseIP(cfg.DriveIP) == nil {
		return fmt.Errorf("drive_ip %q is not a valid IPv4 address", cfg.DriveIP)
	}
	if cfg.RPIMs <= 0 {
		return fmt.Errorf("rpi_ms must be >= 1, got %d", cfg.RPIMs)
	}
	switch cfg.FixedOutOffset {
	case "", "auto", "4", "8":
	default:
		return fmt.Errorf("fixed_out_offset must be \"auto\", 4, or 8, got %q", cfg.FixedOutOffset)
	}
	if cfg.ListenPort == 0 {
		cfg.ListenPort = 2222
	}
	if cfg.OToTSizeBytes == 0 {
		cfg.OToTSizeBytes = 44
	}
	if cfg.TToOSizeBytes == 0 {
		cfg.TToOSizeBytes = 44
	}
	return nil
}

// ResolvedOffset returns the configured Fixed-I/O offset and whether
// auto-detection should run instead.
func (c Config) ResolvedOffset() (offset int, auto bool) {
	switch c.FixedOutOffset {
	case "4":
		return 4, false
	case "8":
		return 8, false
	default:
		return FixedOutOffsetAuto, true
	}
}
