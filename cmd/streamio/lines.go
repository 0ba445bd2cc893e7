package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/blockberries/streamio/pkg/textio"
)

func linesMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 1 {
		return errors.New("invalid number of arguments")
	}

	// Load configuration.
	cfg, logger, err := loadConfiguration()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Open the input and wrap it in a text reader.
	ms, err := openFile(arguments[0])
	if err != nil {
		return err
	}
	reader, err := textio.NewReaderWithOptions(ms, cfg.ReaderOptions(logger))
	if err != nil {
		return errors.Wrap(err, "unable to create reader")
	}
	defer reader.Close()

	// Print each line.
	out := command.OutOrStdout()
	for number := 1; ; number++ {
		line, err := reader.ReadLine()
		if err == io.EOF {
			break
		} else if err != nil {
			return errors.Wrapf(err, "unable to read line %d", number)
		}
		if linesConfiguration.plain {
			fmt.Fprintln(out, line)
		} else {
			fmt.Fprintf(out, "%6d\t%s\n", number, line)
		}
	}

	// Success.
	return nil
}

var linesCommand = &cobra.Command{
	Use:     "lines <file>",
	Aliases: []string{"l"},
	Short:   "Print the lines of a text file",
	Run:     Mainify(linesMain),
}

var linesConfiguration struct {
	// plain disables line numbering.
	plain bool
}

func init() {
	// Grab a handle for the command line flags.
	flags := linesCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Wire up flags.
	flags.BoolVarP(&linesConfiguration.plain, "plain", "p", false, "Print lines without numbers")
}
