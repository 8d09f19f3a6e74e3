package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tturner/motordrive/internal/command"
	"github.com/tturner/motordrive/internal/payloads"
)

func newPauseCmd() *cobra.Command {
	var durationSec float64
	var keep string

	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Hold the cyclic stream at a fixed payload without disrupting cadence",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := parseKeep(keep)
			if err != nil {
				return err
			}

			ctx := context.Background()
			d, err := connectFromFlags(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			return d.engine.Pause(ctx, time.Duration(durationSec*float64(time.Second)), k)
		},
	}
	cmd.Flags().Float64Var(&durationSec, "duration", 1.0, "pause duration in seconds")
	cmd.Flags().StringVar(&keep, "keep", "stop", `payload to hold during the pause: "stop", "hold", or a 44-byte hex blob`)
	return cmd
}

func parseKeep(value string) (command.Keep, error) {
	switch value {
	case "stop":
		return command.KeepStop(), nil
	case "hold":
		return command.KeepHold(), nil
	default:
		p, err := payloads.FromHex(value)
		if err != nil {
			return command.Keep{}, fmt.Errorf(`--keep must be "stop", "hold", or a 44-byte hex blob: %w`, err)
		}
		return command.KeepCustom(p), nil
	}
}
