package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

func newJogCmd() *cobra.Command {
	var durationSec float64

	cmd := &cobra.Command{
		Use:   "jog",
		Short: "Assert the jog payload for a fixed duration, then stop",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := connectFromFlags(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			return d.engine.Jog(ctx, time.Duration(durationSec*float64(time.Second)))
		},
	}
	cmd.Flags().Float64Var(&durationSec, "duration", 1.0, "jog duration in seconds")
	return cmd
}
