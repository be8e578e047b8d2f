package logging

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05"

// Options configure the diagnostic logger
type Options struct {
	// Level is a logrus level name: trace, debug, info, warn, error
	Level string
	// Format is "text" or "json"
	Format string
	// NoColor disables colored level names in text output
	NoColor bool
	Out     io.Writer
}

// New builds the diagnostic logger. This logger is for operators; the official record of the election is written
// separately through audit.Log.
func New(opts Options) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	logger := logrus.New()
	logger.SetLevel(level)
	if opts.Out != nil {
		logger.SetOutput(opts.Out)
	}

	switch strings.ToLower(opts.Format) {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
			DisableColors:   opts.NoColor,
		})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	default:
		return nil, fmt.Errorf("invalid log format %q: want text or json", opts.Format)
	}

	return logger, nil
}

// Component tags every entry with the component name and election run id
func Component(logger logrus.FieldLogger, component, electionID string) *logrus.Entry {
	return logger.WithFields(logrus.Fields{
		"component":   component,
		"election_id": electionID,
	})
}

// Discard returns a logger that writes nowhere, for tests and callers that do not want diagnostics
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
