package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Assert the stop payload and wait for it to settle",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := connectFromFlags(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()
			return d.engine.Stop(ctx)
		},
	}
}
