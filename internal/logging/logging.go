// Package logging configures the process-wide zap logger and attaches it to
// a context.Context the way the rest of cyclefind expects to find it
// (github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap).
package logging

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Option mutates a zap.Config before it is built.
type Option func(*zap.Config)

// WithLevel sets the minimum enabled log level. Unrecognized levels fall
// back to info rather than failing the run.
func WithLevel(level string) Option {
	return func(c *zap.Config) {
		var ll zapcore.Level
		if err := ll.Set(level); err != nil {
			ll = zapcore.InfoLevel
		}
		c.Level.SetLevel(ll)
	}
}

// WithFormat selects "json" or "console" encoding.
func WithFormat(format string) Option {
	return func(c *zap.Config) {
		switch format {
		case FormatJSON, FormatConsole:
			c.Encoding = format
		default:
			c.Encoding = FormatJSON
		}
	}
}

// Init builds a zap logger and returns a context carrying it via ctxzap, so
// every package downstream can do ctxzap.Extract(ctx) without threading a
// *zap.Logger through every function signature.
func Init(ctx context.Context, opts ...Option) (context.Context, error) {
	zc := zap.NewProductionConfig()
	zc.DisableStacktrace = true
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	for _, opt := range opts {
		opt(&zc)
	}

	l, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return ctxzap.ToContext(ctx, l), nil
}
