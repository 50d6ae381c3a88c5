// Package logging holds the shared logrus logger. The TUI owns the
// terminal, so the entry point normally redirects output to a log file.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

// Configure sets the log level and destination.
func Configure(level logrus.Level, out io.Writer) {
	logger.SetLevel(level)
	logger.SetOutput(out)
}

// Log returns the shared logger instance.
func Log() *logrus.Logger {
	return logger
}
