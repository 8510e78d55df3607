package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "scraper",
	Level:           log.InfoLevel,
})

// Logger returns the process-wide logger.
func Logger() *log.Logger {
	return logger
}

// Named returns a child logger tagged with a component prefix.
func Named(component string) *log.Logger {
	return logger.WithPrefix(component)
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}

// SetOutput redirects log output, e.g. away from stdout when serving MCP over stdio.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
