// Command motordrive is a thin CLI front end over the drive driver: it
// loads a connection config, runs one operation, and exits. It holds no
// business logic of its own.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "motordrive",
		Short:         "Drive a Class-1 implicit I/O EtherNet/IP motor controller",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "motordrive.yaml", "path to the drive connection config")
	rootCmd.PersistentFlags().String("capture", "", "record the O->T/T->O stream to this pcapng file (overrides capture_file in config)")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newJogCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newOperationCmd())
	rootCmd.AddCommand(newPauseCmd())
	rootCmd.AddCommand(newTriggerCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the motordrive version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	}
}
