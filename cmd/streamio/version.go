package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blockberries/streamio/pkg/stream"
)

func versionMain(command *cobra.Command, arguments []string) error {
	// Print version information.
	fmt.Fprintln(command.OutOrStdout(), "streamio version", stream.VersionInfo())

	// Success.
	return nil
}

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	Run:   Mainify(versionMain),
}
