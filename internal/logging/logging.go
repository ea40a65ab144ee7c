// Package logging builds the charmbracelet/log logger shared by the CLI and
// the install engine, and carries it through context.Context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// FileName is the log file written under the home log directory.
const FileName = "kaleido.log"

// New creates a logger with timestamp formatting that writes to w and
// filters messages at level.
func New(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// Discard returns a logger that drops everything. Components use it when no
// logger is supplied.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Or returns l, or a discarding logger if l is nil.
func Or(l *log.Logger) *log.Logger {
	if l == nil {
		return Discard()
	}
	return l
}

// Level returns the level for the verbose flag.
func Level(verbose bool) log.Level {
	if verbose {
		return log.DebugLevel
	}
	return log.InfoLevel
}

// Setup creates the application logger writing to console and appending to
// <logDir>/kaleido.log. The returned close function releases the file. If the
// file cannot be opened, the console logger is returned along with the error
// so the caller can report it and carry on.
func Setup(console io.Writer, logDir string, verbose bool) (*log.Logger, func() error, error) {
	level := Level(verbose)
	noop := func() error { return nil }

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return New(console, level), noop, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(logDir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return New(console, level), noop, fmt.Errorf("open log file: %w", err)
	}

	return New(io.MultiWriter(console, f), level), f.Close, nil
}

type ctxKey int

const loggerKey ctxKey = 0

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext retrieves the logger from ctx, or log.Default() if none is attached.
func FromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
