package main

import (
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/blockberries/streamio/internal/config"
	"github.com/blockberries/streamio/pkg/stream"
)

// loadConfiguration loads the configuration named by the root flags and
// builds the logger it describes.
func loadConfiguration() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(rootConfiguration.configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// openFile loads the file at path into a read-only memory stream.
func openFile(path string) (*stream.MemoryStream, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read input")
	}
	ms, err := stream.NewMemoryStreamReadOnly(data)
	if stream.IsRangeExceeded(err) {
		return nil, errors.Wrapf(err,
			"%s is %s, above the %s memory stream ceiling",
			path,
			humanize.Bytes(uint64(len(data))),
			humanize.Bytes(stream.MaxLength),
		)
	} else if err != nil {
		return nil, errors.Wrap(err, "unable to create stream")
	}
	return ms, nil
}
