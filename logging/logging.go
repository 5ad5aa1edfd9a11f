// Package logging provides loggers for the library and CLI.
package logging

import (
	"context"

	"go.uber.org/zap"
)

// Logger is used to emit log messages.
type Logger = *zap.SugaredLogger

// LoggerFactory retrieves a named logger for a given module.
type LoggerFactory func(module string) Logger

// NullLogger discards all log messages.
//
//nolint:gochecknoglobals
var NullLogger = zap.NewNop().Sugar()

// Module returns a function that returns a logger for a given module when
// provided with a context.
func Module(module string) func(ctx context.Context) Logger {
	return func(ctx context.Context) Logger {
		if c, ok := ctx.Value(loggerCacheKey).(*loggerCache); ok {
			return c.getLogger(module)
		}

		return NullLogger
	}
}
