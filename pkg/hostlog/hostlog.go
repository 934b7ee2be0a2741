// Package hostlog provides structured logging for the plugin host.
//
// The API mirrors the teacher repo's hand-rolled debug.Logger convenience
// surface (Default/SetLevel/Debug/Warn/Error) but every call emits a
// structured zerolog event instead of a formatted line, and components get
// their own named sub-logger via With.
package hostlog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu            sync.RWMutex
	defaultLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// SetOutput redirects the default logger's output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = zerolog.New(w).With().Timestamp().Logger()
}

// SetLevel sets the minimum level reported by the default logger.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = defaultLogger.Level(level)
}

// Default returns the process-wide default logger.
func Default() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &defaultLogger
}

// With returns a sub-logger tagged with a component name, the logging
// equivalent of the teacher's per-instance Logger.SetPrefix.
func With(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger.With().Str("component", component).Logger()
}

// Debug logs a debug-level message on the default logger.
func Debug(msg string) { Default().Debug().Msg(msg) }

// Warn logs a warning on the default logger.
func Warn(msg string) { Default().Warn().Msg(msg) }

// Error logs an error on the default logger, attaching err if non-nil.
func Error(msg string, err error) {
	ev := Default().Error()
	if err != nil {
		ev = ev.Err(err)
	}
	ev.Msg(msg)
}
