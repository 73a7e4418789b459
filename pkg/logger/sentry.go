package logger

import (
	"context"
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig enables error reporting. An empty DSN disables Sentry.
type SentryConfig struct {
	DSN         string `env:"SENTRY_DSN"`
	Environment string `env:"SENTRY_ENVIRONMENT" envDefault:"development"`
	// OnlyErrors keeps warnings out of Sentry's log stream.
	OnlyErrors bool `env:"SENTRY_ONLY_ERRORS" envDefault:"false"`
}

// NewWithSentry logs to stdout and forwards warnings and errors to Sentry.
// Errors become Sentry issues. Without a DSN, or when the SDK fails to start,
// it behaves like New.
func NewWithSentry(cfg Config, sc SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	stdout := cfg.handler(os.Stdout)
	if sc.DSN == "" {
		return slog.New(NewLogHandlerDecorator(stdout, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         sc.DSN,
		Environment: sc.Environment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(stdout).Error("sentry init failed", slog.String("error", err.Error()))
		return slog.New(NewLogHandlerDecorator(stdout, extractors...))
	}

	logLevels := []slog.Level{slog.LevelWarn, slog.LevelError}
	if sc.OnlyErrors {
		logLevels = []slog.Level{slog.LevelError}
	}
	reporter := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevels,
	}.NewSentryHandler(context.Background())

	return slog.New(NewLogHandlerDecorator(fanout{stdout, reporter}, extractors...))
}
