package logger

import corelogger "github.com/kilianp07/evcorridor/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// New returns a Logger for the given component, writing to the outputs set by
// Configure. The console format is used when APP_ENV is "dev".
func New(component string) Logger {
	return NewZerologLogger(component)
}
