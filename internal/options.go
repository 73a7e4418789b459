package internal

import (
	"log/slog"

	"github.com/dmitrymomot/autoforge/pkg/flash"
	"github.com/dmitrymomot/autoforge/pkg/metrics"
	"github.com/dmitrymomot/autoforge/pkg/model"
	"github.com/dmitrymomot/autoforge/pkg/sanitizer"
)

// Option configures the application.
type Option func(*App)

// WithRegistry sets the models served by the admin.
func WithRegistry(r *model.Registry) Option {
	return func(a *App) {
		a.registry = r
	}
}

// WithStore sets the persistence backend.
func WithStore(s model.Store) Option {
	return func(a *App) {
		a.store = s
	}
}

// WithPrefix mounts the admin under a path, e.g. "/admin".
func WithPrefix(prefix string) Option {
	return func(a *App) {
		a.prefix = normalizePrefix(prefix)
	}
}

// WithLogger sets the application logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithFlash sets the flash cookie manager. Use a fixed secret when more
// than one instance serves the admin.
func WithFlash(m *flash.Manager) Option {
	return func(a *App) {
		a.flash = m
	}
}

// WithMetrics records dispatched actions and association changes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) {
		a.metrics = m
	}
}

// WithCSRF sets the token accessor. When set, every POST form carries the
// token in a hidden field.
//
//	autoforge.WithCSRF(middlewares.CSRFToken)
func WithCSRF(token func(Context) string) Option {
	return func(a *App) {
		a.csrf = token
	}
}

// WithSanitizer replaces sanitizer.Strip, which removes all markup from
// submitted values. Pass nil to store values as submitted.
func WithSanitizer(fn sanitizer.Func) Option {
	return func(a *App) {
		a.sanitize = fn
	}
}

// WithMiddleware adds global middleware, applied in the order provided.
func WithMiddleware(mw ...Middleware) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHandlers registers extra handlers next to the admin routes.
func WithHandlers(h ...Handler) Option {
	return func(a *App) {
		a.handlers = append(a.handlers, h...)
	}
}

// WithErrorHandler replaces DefaultErrorHandler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		if h != nil {
			a.errorHandler = h
		}
	}
}

// WithNotFoundHandler handles paths outside the admin routes.
// By default they are reported as ErrUnhandled.
func WithNotFoundHandler(h HandlerFunc) Option {
	return func(a *App) {
		a.notFoundHandler = h
	}
}

// WithHealthChecks enables /health/live and /health/ready.
//
//	autoforge.WithHealthChecks(
//	    autoforge.WithReadinessCheck("db", db.Healthcheck(pool)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		cfg := &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
		}
		for _, opt := range opts {
			opt(cfg)
		}
		a.healthConfig = cfg
	}
}
