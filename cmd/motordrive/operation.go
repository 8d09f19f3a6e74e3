package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newOperationCmd() *cobra.Command {
	var timeoutSec float64

	cmd := &cobra.Command{
		Use:   "operation <n>",
		Short: "Run operation N to completion, or fail after the timeout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var n int
			if _, err := fmt.Sscanf(args[0], "%d", &n); err != nil {
				return fmt.Errorf("invalid operation number %q: %w", args[0], err)
			}

			ctx := context.Background()
			d, err := connectFromFlags(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()

			ok, err := d.engine.Operation(ctx, n, time.Duration(timeoutSec*float64(time.Second)))
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("operation %d timed out before reaching IN-POS", n)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&timeoutSec, "timeout", 30.0, "timeout in seconds")
	return cmd
}
