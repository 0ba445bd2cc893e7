// Command streamio reads and rewrites text files through the streamio
// memory streams and buffered text adapters.
//
// Usage:
//
//	streamio lines [options] <file>
//	streamio convert [options] <input> <output>
//	streamio stat <file>...
//	streamio version
//
// Every command loads its input into a memory stream, so inputs larger than
// the 65,535 byte stream ceiling are rejected.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func rootMain(command *cobra.Command, arguments []string) error {
	// Arguments without a subcommand are rejected by cobra before this
	// point, so only print help.
	command.Help()

	// Success.
	return nil
}

var rootCommand = &cobra.Command{
	Use:          "streamio",
	Short:        "Read and rewrite text through bounded memory streams",
	Run:          Mainify(rootMain),
	SilenceUsage: true,
}

var rootConfiguration struct {
	// configPath is the path to a YAML configuration file.
	configPath string
}

func init() {
	// Disable alphabetical sorting of commands in help output.
	cobra.EnableCommandSorting = false

	// Grab a handle for the persistent command line flags.
	flags := rootCommand.PersistentFlags()
	flags.StringVarP(&rootConfiguration.configPath, "config", "c", "", "Path to a YAML configuration file")

	// Register commands.
	rootCommand.AddCommand(
		linesCommand,
		convertCommand,
		statCommand,
		versionCommand,
	)
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
