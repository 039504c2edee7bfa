// Package logging builds the structured phuslu logger shared by the server,
// the document service and the storage backends.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// New returns a logger at the given level ("debug", "info", "warn",
// "error"). Output goes to stderr so that a stdio MCP transport keeps stdout
// for protocol frames; console formatting is used when stderr is a terminal.
func New(level string) *log.Logger {
	return NewWithWriter(level, os.Stderr)
}

// NewWithWriter returns a JSON logger writing to w.
func NewWithWriter(level string, w io.Writer) *log.Logger {
	logger := &log.Logger{
		Level:  parseLevel(level),
		Caller: 0,
		Writer: &log.IOWriter{Writer: w},
	}
	if f, ok := w.(*os.File); ok && log.IsTerminal(f.Fd()) {
		logger.Writer = &log.ConsoleWriter{Writer: w, ColorOutput: true}
	}
	return logger
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

func parseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
