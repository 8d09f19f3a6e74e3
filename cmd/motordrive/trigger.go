package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tturner/motordrive/internal/command"
)

func newTriggerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "One-shot payload assertions with no completion wait",
	}
	cmd.AddCommand(
		oneShotCmd("trigger", "Assert the trigger payload", (*command.Engine).Trigger),
		oneShotCmd("detrigger", "Assert the detrigger payload", (*command.Engine).Detrigger),
		oneShotCmd("free", "Assert the free payload", (*command.Engine).Free),
		oneShotCmd("no-op", "Assert the no-op payload", (*command.Engine).NoOp),
	)
	return cmd
}

func oneShotCmd(use, short string, run func(*command.Engine, context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := connectFromFlags(ctx, cmd)
			if err != nil {
				return err
			}
			defer d.Close()
			return run(d.engine, ctx)
		},
	}
}
