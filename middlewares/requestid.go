package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/autoforge/internal"
	"github.com/dmitrymomot/autoforge/pkg/logger"
)

type requestIDKey struct{}

// DefaultRequestIDHeaders are checked in order for an upstream request id.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

type requestIDConfig struct {
	generate       func() string
	responseHeader string
	headers        []string
}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestIDConfig)

// WithRequestIDHeaders sets the headers checked for an existing id.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		cfg.headers = headers
	}
}

// WithRequestIDGenerator replaces the UUIDv4 generator.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(cfg *requestIDConfig) {
		if gen != nil {
			cfg.generate = gen
		}
	}
}

// RequestID tags every request with an id taken from the request headers or
// freshly generated, and echoes it in X-Request-ID.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	cfg := &requestIDConfig{
		generate:       uuid.NewString,
		responseHeader: "X-Request-ID",
		headers:        DefaultRequestIDHeaders,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			var id string
			for _, h := range cfg.headers {
				if id = c.Header(h); id != "" {
					break
				}
			}
			if id == "" {
				id = cfg.generate()
			}
			c.Set(requestIDKey{}, id)
			c.SetHeader(cfg.responseHeader, id)

			return next(c)
		}
	}
}

// GetRequestID returns the id assigned by RequestID, or "".
func GetRequestID(c internal.Context) string {
	id, _ := c.Get(requestIDKey{}).(string)
	return id
}

// RequestIDExtractor adds "request_id" to log entries.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}
