package main

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blockberries/streamio/pkg/stream"
	"github.com/blockberries/streamio/pkg/textio"
)

func convertMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) != 2 {
		return errors.New("invalid number of arguments")
	}

	// Load configuration and apply the command line override.
	cfg, logger, err := loadConfiguration()
	if err != nil {
		return err
	}
	defer logger.Sync()
	if convertConfiguration.newLine != "" {
		cfg.Writer.NewLine = convertConfiguration.newLine
	}

	// Open the input.
	input, err := openFile(arguments[0])
	if err != nil {
		return err
	}
	reader, err := textio.NewReaderWithOptions(input, cfg.ReaderOptions(logger))
	if err != nil {
		return errors.Wrap(err, "unable to create reader")
	}
	defer reader.Close()

	// Rewrite every line into a growable stream.
	output := stream.NewMemoryStream()
	options := cfg.WriterOptions(logger)
	options.LeaveOpen = true
	writer, err := textio.NewWriterWithOptions(output, options)
	if err != nil {
		return errors.Wrap(err, "unable to create writer")
	}
	count, err := convertLines(reader, writer)
	if err != nil {
		writer.Close()
		return err
	}
	if err := writer.Flush(); err != nil {
		writer.Close()
		return errors.Wrap(err, "unable to flush output")
	}
	writer.Close()
	if count == 0 {
		Warning("input contains no lines")
	}

	// Write the result.
	data, err := output.ToArray()
	if err != nil {
		return errors.Wrap(err, "unable to extract output")
	}
	if err := os.WriteFile(arguments[1], data, 0644); err != nil {
		return errors.Wrap(err, "unable to write output")
	}
	logger.Debug("converted file",
		zap.String("input", arguments[0]),
		zap.String("output", arguments[1]),
		zap.Int("lines", count),
		zap.Int("bytes", len(data)),
	)

	// Success.
	return nil
}

// convertLines copies every line from reader to writer, terminating each
// with the writer's line terminator. It returns the number of lines copied.
func convertLines(reader *textio.Reader, writer *textio.Writer) (int, error) {
	count := 0
	for {
		line, err := reader.ReadLine()
		if err == io.EOF {
			return count, nil
		} else if err != nil {
			return count, errors.Wrapf(err, "unable to read line %d", count+1)
		}
		if err := writer.WriteLine(line); err != nil {
			return count, errors.Wrapf(err, "unable to write line %d", count+1)
		}
		count++
	}
}

var convertCommand = &cobra.Command{
	Use:     "convert <input> <output>",
	Aliases: []string{"conv", "c"},
	Short:   "Rewrite the line terminators of a text file",
	Run:     Mainify(convertMain),
}

var convertConfiguration struct {
	// newLine overrides the configured line terminator.
	newLine string
}

func init() {
	// Grab a handle for the command line flags.
	flags := convertCommand.Flags()

	// Disable alphabetical sorting of flags in help output.
	flags.SortFlags = false

	// Wire up flags.
	flags.StringVarP(&convertConfiguration.newLine, "newline", "n", "", "Line terminator to write (crlf|lf|cr)")
}
