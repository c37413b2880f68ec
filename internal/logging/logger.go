// Package logging builds the logrus logger shared by all vocalens components.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Options controls logger construction.
type Options struct {
	Level  string    // logrus level name, default "info"
	Format string    // "text" or "json"
	Output io.Writer // default os.Stderr, stdout belongs to the console
}

// NewLogger creates and configures a new logrus.Logger.
func NewLogger(opts Options) *logrus.Logger {
	logger := logrus.New()

	level := logrus.InfoLevel
	if opts.Level != "" {
		if lv, err := logrus.ParseLevel(strings.ToLower(opts.Level)); err == nil {
			level = lv
		}
	}
	logger.SetLevel(level)

	var output io.Writer = os.Stderr
	if opts.Output != nil {
		output = opts.Output
	}
	logger.SetOutput(output)

	if strings.EqualFold(opts.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// Component returns an entry tagged with the component name.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return logger.WithField("component", name)
}

// Discard returns an entry that drops everything, for tests and nil defaults.
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}
