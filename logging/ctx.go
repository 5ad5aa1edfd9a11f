package logging

import (
	"context"
	"sync"
)

type contextKey string

const loggerCacheKey contextKey = "logger"

// loggerCache lazily creates and caches per-module loggers produced by a
// single factory, so repeated Module(...)(ctx) calls are cheap.
type loggerCache struct {
	createLogger LoggerFactory
	loggers      sync.Map // module name -> Logger
}

func (c *loggerCache) getLogger(module string) Logger {
	if l, ok := c.loggers.Load(module); ok {
		return l.(Logger)
	}

	l, _ := c.loggers.LoadOrStore(module, c.createLogger(module))

	return l.(Logger)
}

// WithLogger returns a derived context with an associated logger factory.
func WithLogger(ctx context.Context, l LoggerFactory) context.Context {
	if l == nil {
		l = func(module string) Logger { return NullLogger }
	}

	return context.WithValue(ctx, loggerCacheKey, &loggerCache{createLogger: l})
}

// WithAdditionalLogger returns a derived context whose loggers emit both to
// the factory already associated with the context and to the provided one.
func WithAdditionalLogger(ctx context.Context, l LoggerFactory) context.Context {
	prev := factoryFromContext(ctx)

	return WithLogger(ctx, func(module string) Logger {
		return Broadcast(prev(module), l(module))
	})
}

func factoryFromContext(ctx context.Context) LoggerFactory {
	if c, ok := ctx.Value(loggerCacheKey).(*loggerCache); ok {
		return c.createLogger
	}

	return func(module string) Logger { return NullLogger }
}
