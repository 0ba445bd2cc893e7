package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/blockberries/streamio/pkg/stream"
	"github.com/blockberries/streamio/pkg/textio"
)

// fileStat summarizes a text file loaded into a memory stream.
type fileStat struct {
	length     int64
	capacity   int
	characters int64
	lines      int64
}

// statStream counts the characters and lines in ms. The stream is read twice
// from the start, once per count, by readers that leave it open.
func statStream(ms *stream.MemoryStream, options textio.ReaderOptions) (fileStat, error) {
	var result fileStat
	var err error
	if result.length, err = ms.Length(); err != nil {
		return result, err
	}
	if result.capacity, err = ms.Capacity(); err != nil {
		return result, err
	}
	options.LeaveOpen = true

	// Count characters.
	reader, err := textio.NewReaderWithOptions(ms, options)
	if err != nil {
		return result, err
	}
	for {
		if _, _, err := reader.ReadRune(); err == io.EOF {
			break
		} else if err != nil {
			reader.Close()
			return result, err
		}
		result.characters++
	}
	reader.Close()

	// Rewind and count lines.
	if err := ms.SetPosition(0); err != nil {
		return result, err
	}
	if reader, err = textio.NewReaderWithOptions(ms, options); err != nil {
		return result, err
	}
	defer reader.Close()
	for {
		if _, err := reader.ReadLine(); err == io.EOF {
			break
		} else if err != nil {
			return result, err
		}
		result.lines++
	}
	return result, nil
}

func statMain(command *cobra.Command, arguments []string) error {
	// Validate arguments.
	if len(arguments) == 0 {
		return errors.New("no files specified")
	}

	// Load configuration.
	cfg, logger, err := loadConfiguration()
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Report on each file.
	out := command.OutOrStdout()
	for _, path := range arguments {
		ms, err := openFile(path)
		if err != nil {
			return err
		}
		result, err := statStream(ms, cfg.ReaderOptions(logger))
		ms.Close()
		if err != nil {
			return errors.Wrapf(err, "unable to scan %s", path)
		}
		fmt.Fprintln(out, "Path:", path)
		fmt.Fprintf(out, "Length: %s (%s bytes)\n", humanize.Bytes(uint64(result.length)), humanize.Comma(result.length))
		fmt.Fprintf(out, "Capacity: %s bytes\n", humanize.Comma(int64(result.capacity)))
		fmt.Fprintln(out, "Characters:", humanize.Comma(result.characters))
		fmt.Fprintln(out, "Lines:", humanize.Comma(result.lines))
	}

	// Success.
	return nil
}

var statCommand = &cobra.Command{
	Use:     "stat <file>...",
	Aliases: []string{"s"},
	Short:   "Show length, character and line counts for text files",
	Run:     Mainify(statMain),
}
