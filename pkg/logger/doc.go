// Package logger builds slog loggers for autoforge.
//
// Records are written as JSON (or text) to stdout. A [ContextExtractor]
// pulls request-scoped values such as the request id, the model name and the
// action out of the context on every call, so handlers only log what is
// specific to them:
//
//	log := logger.New(logger.Config{Level: "debug"}, middlewares.RequestIDExtractor())
//	log.InfoContext(ctx, "record created", slog.Int64("id", key))
//
// [NewWithSentry] additionally forwards warnings and errors to Sentry when a
// DSN is configured.
package logger
