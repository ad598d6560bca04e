package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for diagnose.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Classify brain MRI images and print a diagnosis report",
		Long: `diagnose drives the MRI diagnosis pipeline from the terminal.

It uploads an image to the classification service, waits for the response,
derives the report (tumor type, risk tier, sequence tag) and maps detection
boxes onto the requested viewport.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewRunCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
