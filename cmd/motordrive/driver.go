package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tturner/motordrive/internal/command"
	"github.com/tturner/motordrive/internal/config"
	"github.com/tturner/motordrive/internal/handshake"
	"github.com/tturner/motordrive/internal/iosession"
	"github.com/tturner/motordrive/internal/logging"
	"github.com/tturner/motordrive/internal/payloads"
)

// driver bundles the live session and command engine a subcommand needs,
// plus the teardown it must run when done.
type driver struct {
	session *iosession.Session
	engine  *command.Engine
}

func (d *driver) Close() error {
	return d.session.Close()
}

// connectFromFlags loads the config named by --config, builds the payload
// table (defaults overridden by any hex blobs in the config), connects a
// session, and wires a command engine over it.
func connectFromFlags(ctx context.Context, cmd *cobra.Command) (*driver, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if capture, err := cmd.Flags().GetString("capture"); err == nil && capture != "" {
		cfg.CaptureFile = capture
	}

	set, err := buildPayloadSet(cfg.Payloads)
	if err != nil {
		return nil, err
	}

	log := logging.NewConsoleLogger(logging.LevelInfo, os.Stdout)
	rpi := time.Duration(cfg.RPIMs) * time.Millisecond

	sess := iosession.New(iosession.Options{
		DriveIP:       cfg.DriveIP,
		RPI:           rpi,
		OToTSize:      cfg.OToTSizeBytes,
		TToOSize:      cfg.TToOSizeBytes,
		MirrorOverTCP: cfg.MirrorOverTCP,
		ListenPort:    cfg.ListenPort,
		AcceptAnyPeer: cfg.AcceptAnyPeer,
		CaptureFile:   cfg.CaptureFile,
		ConnParams: handshake.ConnectionParams{
			Priority:              "scheduled",
			TimeoutSec:            30,
			OToTRPIMs:             uint32(cfg.RPIMs),
			TToORPIMs:             uint32(cfg.RPIMs),
			OToTSizeBytes:         cfg.OToTSizeBytes,
			TToOSizeBytes:         cfg.TToOSizeBytes,
			TransportClassTrigger: 0x03,
			ConnectionPath:        []byte{0x20, 0x04, 0x24, 0x65},
		},
		Logger: log,
	})

	if err := sess.Connect(ctx); err != nil {
		return nil, err
	}

	eng := command.New(sess, set, rpi, nil)
	return &driver{session: sess, engine: eng}, nil
}

func buildPayloadSet(cfg config.PayloadConfig) (payloads.Set, error) {
	set := payloads.DefaultSet()

	overrides := []struct {
		hex    string
		target *payloads.Payload
	}{
		{cfg.JogHex, &set.Jog},
		{cfg.StopHex, &set.Stop},
		{cfg.FreeHex, &set.Free},
		{cfg.NoOpHex, &set.NoOp},
		{cfg.TriggerHex, &set.Trigger},
		{cfg.DetriggerHex, &set.Detrigger},
	}
	for _, o := range overrides {
		if o.hex == "" {
			continue
		}
		p, err := payloads.FromHex(o.hex)
		if err != nil {
			return set, err
		}
		*o.target = p
	}

	for n, hexBlob := range cfg.OperationHex {
		p, err := payloads.FromHex(hexBlob)
		if err != nil {
			return set, err
		}
		set.Op[n] = p
	}
	return set, nil
}
