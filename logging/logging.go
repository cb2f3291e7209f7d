// Package logging configures the process-wide logrus logger.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/sirupsen/logrus"
)

// Log formats accepted by Config.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config controls the logger. Verbosity follows the CLI scale
// 0=fatal, 1=error, 2=warn, 3=info, 4=debug, 5=trace.
type Config struct {
	Verbosity int
	Format    string
	Color     bool
	SentryDSN string `toml:",omitempty"`
}

// DefaultConfig is info level text output.
func DefaultConfig() Config {
	return Config{
		Verbosity: 3,
		Format:    FormatText,
		Color:     true,
	}
}

// Level maps a verbosity to a logrus level, clamping out of range values.
func Level(verbosity int) logrus.Level {
	if verbosity < 0 {
		verbosity = 0
	}
	if verbosity > 5 {
		verbosity = 5
	}
	return logrus.Level(verbosity + 1)
}

// Formatter returns the logrus formatter for cfg.
func Formatter(cfg Config) (logrus.Formatter, error) {
	switch cfg.Format {
	case FormatText, "":
		return &logrus.TextFormatter{
			ForceColors:     cfg.Color,
			DisableColors:   !cfg.Color,
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		}, nil
	case FormatJSON:
		return &logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano}, nil
	default:
		return nil, fmt.Errorf("unknown log format %q (valid: text, json)", cfg.Format)
	}
}

// Setup applies cfg to logger and writes to out when it is not nil.
// Error and fatal entries are also shipped to Sentry when a DSN is set.
func Setup(logger *logrus.Logger, cfg Config, out io.Writer) error {
	formatter, err := Formatter(cfg)
	if err != nil {
		return err
	}
	logger.SetFormatter(formatter)
	logger.SetLevel(Level(cfg.Verbosity))
	if out != nil {
		logger.SetOutput(out)
	}

	if cfg.SentryDSN == "" {
		return nil
	}
	hook, err := logrus_sentry.NewSentryHook(cfg.SentryDSN, []logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	})
	if err != nil {
		return fmt.Errorf("sentry hook: %w", err)
	}
	hook.Timeout = 5 * time.Second
	hook.StacktraceConfiguration.Enable = true
	logger.AddHook(hook)
	return nil
}
