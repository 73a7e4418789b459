package middlewares

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/autoforge/internal"
)

// AccessLog logs one line per request with its final status, body size and
// duration. Place it after RequestID so the line carries request_id.
func AccessLog() internal.Middleware {
	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			start := time.Now()
			err := next(c)

			rw := c.ResponseWriter()
			status := rw.Status()
			if err != nil && !rw.Written() {
				// the app error handler answers after we return
				status = internal.ToHTTPError(err).Code
			}

			level := slog.LevelInfo
			switch {
			case status >= 500:
				level = slog.LevelError
			case status >= 400:
				level = slog.LevelWarn
			}
			r := c.Request()
			c.Logger().Log(c, level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int64("size", rw.Size()),
				slog.Duration("duration", time.Since(start)),
			)
			return err
		}
	}
}
