// Package logging builds the loggers shared by the store, the network
// node and the command-line tools.
package logging

import (
	"io"
	"os"

	"github.com/phuslu/log"
)

const DefaultLevel = "info"

// New returns a console logger writing to w at the named level. Unknown
// level names fall back to info.
func New(level string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}

	return &log.Logger{
		Level:      log.ParseLevel(level),
		TimeFormat: "2006-01-02 15:04:05",
		Writer: &log.ConsoleWriter{
			Writer:         w,
			EndWithMessage: true,
		},
	}
}

// Default is the logger used when a caller does not supply one.
func Default() *log.Logger {
	return New(DefaultLevel, os.Stderr)
}

// Discard returns a logger that drops every entry.
func Discard() *log.Logger {
	return &log.Logger{
		Level:  log.ErrorLevel,
		Writer: &log.IOWriter{Writer: io.Discard},
	}
}
