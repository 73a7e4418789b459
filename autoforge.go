package autoforge

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/autoforge/internal"
	"github.com/dmitrymomot/autoforge/pkg/flash"
	"github.com/dmitrymomot/autoforge/pkg/health"
	"github.com/dmitrymomot/autoforge/pkg/logger"
	"github.com/dmitrymomot/autoforge/pkg/metrics"
	"github.com/dmitrymomot/autoforge/pkg/model"
	"github.com/dmitrymomot/autoforge/pkg/sanitizer"
)

// Type aliases - public API
type (
	// App serves the admin for a model registry.
	App = internal.App

	// Router is the interface handlers use to declare routes.
	Router = internal.Router

	// Context provides request/response access, flash messages and logging.
	Context = internal.Context

	// Handler declares routes on a router.
	Handler = internal.Handler

	// HandlerFunc is the signature for route handlers.
	HandlerFunc = internal.HandlerFunc

	// Middleware wraps a HandlerFunc.
	Middleware = internal.Middleware

	// ErrorHandler handles errors returned from handlers.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// Component is the interface for renderable templates.
	Component = internal.Component

	// HTTPError is an error with a status code and user-facing message.
	HTTPError = internal.HTTPError

	// ResponseWriter wraps http.ResponseWriter with hooks and htmx support.
	ResponseWriter = internal.ResponseWriter

	// ContextExtractor adds request-scoped values to log entries.
	ContextExtractor = logger.ContextExtractor
)

// ErrUnhandled is the error of requests the admin does not serve.
var ErrUnhandled = internal.ErrUnhandled

// New creates an App. The App is immutable after creation.
//
//	reg, err := manifest.Registry()
//	app := autoforge.New(
//	    autoforge.WithRegistry(reg),
//	    autoforge.WithStore(pgstore.New(pool)),
//	    autoforge.WithPrefix("/admin"),
//	)
//	err = app.Run(":8080", autoforge.Logger(log))
func New(opts ...Option) *App {
	return internal.New(opts...)
}

// App options

// WithRegistry sets the models served by the admin.
func WithRegistry(r *model.Registry) Option {
	return internal.WithRegistry(r)
}

// WithStore sets the persistence backend. Defaults to an in-memory store.
func WithStore(s model.Store) Option {
	return internal.WithStore(s)
}

// WithPrefix mounts the admin below a path such as "/admin".
func WithPrefix(prefix string) Option {
	return internal.WithPrefix(prefix)
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithFlash sets the flash cookie manager. Without it a random key is used,
// so flash messages do not survive restarts or cross replicas.
func WithFlash(m *flash.Manager) Option {
	return internal.WithFlash(m)
}

// WithMetrics records dispatch and association counters.
func WithMetrics(m *metrics.Metrics) Option {
	return internal.WithMetrics(m)
}

// WithCSRF sets the token source for the hidden field of POST forms.
func WithCSRF(token func(Context) string) Option {
	return internal.WithCSRF(token)
}

// WithSanitizer replaces sanitizer.Strip for submitted model fields.
func WithSanitizer(fn sanitizer.Func) Option {
	return internal.WithSanitizer(fn)
}

// WithMiddleware adds global middleware, applied in the order given.
func WithMiddleware(mw ...Middleware) Option {
	return internal.WithMiddleware(mw...)
}

// WithHandlers registers extra routes next to the admin.
func WithHandlers(h ...Handler) Option {
	return internal.WithHandlers(h...)
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithNotFoundHandler handles requests no route matches.
func WithNotFoundHandler(h HandlerFunc) Option {
	return internal.WithNotFoundHandler(h)
}

// WithHealthChecks enables the liveness and readiness endpoints.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// Health options

// WithLivenessPath overrides "/health/live".
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath overrides "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Run options

// Logger sets the logger for server lifecycle events.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// ShutdownHook registers a cleanup function run after the server stops.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets the parent context of the server. Cancelling it stops the server.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Errors and logging

// DefaultErrorHandler answers with the status ToHTTPError assigns.
func DefaultErrorHandler(c Context, err error) error {
	return internal.DefaultErrorHandler(c, err)
}

// ToHTTPError classifies a handler error.
func ToHTTPError(err error) *HTTPError {
	return internal.ToHTTPError(err)
}

// ModelExtractor adds the dispatched model name to log entries.
func ModelExtractor() ContextExtractor {
	return internal.ModelExtractor()
}

// ActionExtractor adds the dispatched action keyword to log entries.
func ActionExtractor() ContextExtractor {
	return internal.ActionExtractor()
}
