// Package config loads the streamio command configuration.
//
// Precedence: defaults, then the YAML file, then environment variables
// (STREAMIO_NEWLINE, STREAMIO_LOG_LEVEL).
package config

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/blockberries/streamio/pkg/textio"
)

const (
	// EnvNewLine overrides writer.newline.
	EnvNewLine = "STREAMIO_NEWLINE"
	// EnvLogLevel overrides log.level.
	EnvLogLevel = "STREAMIO_LOG_LEVEL"
)

// Config is the complete command configuration.
type Config struct {
	Reader ReaderConfig `yaml:"reader"`
	Writer WriterConfig `yaml:"writer"`
	Log    LogConfig    `yaml:"log"`
}

// ReaderConfig configures text readers.
type ReaderConfig struct {
	BufferSize    int `yaml:"buffer_size"`
	MaxLineLength int `yaml:"max_line_length"`
}

// WriterConfig configures text writers.
type WriterConfig struct {
	BufferSize int `yaml:"buffer_size"`
	// NewLine is "crlf", "lf", "cr" or a literal terminator.
	NewLine string `yaml:"newline"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `yaml:"level"`
	// Development selects the human-readable development encoder.
	Development bool `yaml:"development"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Reader: ReaderConfig{
			BufferSize:    textio.DefaultReaderBufferSize,
			MaxLineLength: textio.DefaultMaxLineLength,
		},
		Writer: WriterConfig{
			BufferSize: textio.DefaultWriterBufferSize,
			NewLine:    "crlf",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration at path over the defaults and applies
// environment overrides. An empty path loads defaults only.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read configuration file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "unable to parse configuration file")
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv(EnvNewLine); ok && v != "" {
		c.Writer.NewLine = v
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
}

// Validate checks the configuration for out-of-range values.
func (c *Config) Validate() error {
	if c.Reader.BufferSize < textio.MinBufferSize {
		return errors.Errorf("reader buffer size must be at least %d", textio.MinBufferSize)
	}
	if c.Reader.MaxLineLength <= 0 {
		return errors.New("reader max line length must be positive")
	}
	if c.Writer.BufferSize < textio.MinBufferSize {
		return errors.Errorf("writer buffer size must be at least %d", textio.MinBufferSize)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Wrapf(err, "unknown log level %q", c.Log.Level)
	}
	return nil
}

// NewLine resolves the configured writer line terminator.
func (c *Config) NewLine() string {
	switch strings.ToLower(c.Writer.NewLine) {
	case "", "crlf":
		return "\r\n"
	case "lf":
		return "\n"
	case "cr":
		return "\r"
	default:
		return c.Writer.NewLine
	}
}

// ReaderOptions maps the configuration onto textio reader options.
func (c *Config) ReaderOptions(logger *zap.Logger) textio.ReaderOptions {
	return textio.ReaderOptions{
		BufferSize:    c.Reader.BufferSize,
		MaxLineLength: c.Reader.MaxLineLength,
		Logger:        logger,
	}
}

// WriterOptions maps the configuration onto textio writer options.
func (c *Config) WriterOptions(logger *zap.Logger) textio.WriterOptions {
	return textio.WriterOptions{
		BufferSize: c.Writer.BufferSize,
		NewLine:    c.NewLine(),
		Logger:     logger,
	}
}

// Logger builds a zap logger from the log configuration.
func (c *Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "unknown log level %q", c.Log.Level)
	}
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, errors.Wrap(err, "unable to build logger")
	}
	return logger, nil
}
