package internal

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/autoforge/pkg/flash"
	"github.com/dmitrymomot/autoforge/pkg/health"
	"github.com/dmitrymomot/autoforge/pkg/logger"
	"github.com/dmitrymomot/autoforge/pkg/metrics"
	"github.com/dmitrymomot/autoforge/pkg/model"
	"github.com/dmitrymomot/autoforge/pkg/sanitizer"
	"github.com/dmitrymomot/autoforge/pkg/store/memstore"
)

// App serves the admin for a model registry. It is immutable after New.
type App struct {
	router          chi.Router
	errorHandler    ErrorHandler
	notFoundHandler HandlerFunc
	healthConfig    *healthConfig
	logger          *slog.Logger
	flash           *flash.Manager
	registry        *model.Registry
	store           model.Store
	metrics         *metrics.Metrics
	csrf            func(Context) string
	sanitize        sanitizer.Func
	prefix          string
	middlewares     []Middleware
	handlers        []Handler
}

// New creates an App. Without WithStore records live in memory; without
// WithFlash the flash cookie is encrypted with a random per-process key.
//
//	app := autoforge.New(
//	    autoforge.WithRegistry(reg),
//	    autoforge.WithStore(pgstore.New(pool)),
//	    autoforge.WithPrefix("/admin"),
//	)
func New(opts ...Option) *App {
	a := &App{
		router:       chi.NewRouter(),
		logger:       logger.NewNope(),
		errorHandler: DefaultErrorHandler,
		sanitize:     sanitizer.Strip,
	}
	for _, opt := range opts {
		opt(a)
	}

	if a.registry == nil {
		a.registry, _ = model.NewRegistry()
	}
	if a.store == nil {
		a.store = memstore.New()
	}
	if a.flash == nil {
		m, err := flash.NewRandom()
		if err != nil {
			panic("autoforge: flash key: " + err.Error())
		}
		a.flash = m
	}
	if a.notFoundHandler == nil {
		a.notFoundHandler = func(Context) error { return ErrUnhandled }
	}

	a.setupRoutes()
	return a
}

// ServeHTTP makes the App an http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Router returns the underlying chi.Router, e.g. to mount it under another router.
func (a *App) Router() chi.Router {
	return a.router
}

// Run starts the HTTP server and blocks until shutdown.
//
//	err := app.Run(":8080", autoforge.Logger(log), autoforge.ShutdownHook(db.Shutdown(pool)))
func (a *App) Run(addr string, opts ...RunOption) error {
	return serve(a.router, addr, opts...)
}

func (a *App) setupRoutes() {
	a.router.NotFound(a.wrapHandler(a.notFoundHandler))
	a.router.MethodNotAllowed(a.wrapHandler(a.notFoundHandler))

	for _, mw := range a.middlewares {
		a.router.Use(a.adaptMiddleware(mw))
	}

	if a.healthConfig != nil {
		a.router.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		a.router.Get(a.healthConfig.readinessPath,
			health.ReadinessHandler(a.healthConfig.checks, health.WithLogger(a.logger)))
	}

	r := &routerAdapter{router: a.router, app: a}
	adm := &admin{
		registry: a.registry,
		store:    a.store,
		metrics:  a.metrics,
		csrf:     a.csrf,
		sanitize: a.sanitize,
		prefix:   a.prefix,
	}
	if a.prefix == "" {
		adm.Routes(r)
	} else {
		r.Route(a.prefix, adm.Routes)
	}
	for _, h := range a.handlers {
		h.Routes(r)
	}
}

func (a *App) wrapHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := newContext(w, r, a)
		if err := h(c); err != nil {
			a.handleError(c, err)
		}
	}
}

// handleError hands err to the error handler unless a response is already out.
func (a *App) handleError(c Context, err error) {
	if c.Written() {
		c.LogError("error after response was written", "error", err)
		return
	}
	if herr := a.errorHandler(c, err); herr != nil {
		c.LogError("error handler failed", "error", herr)
		http.Error(c.Response(), "Internal Server Error", http.StatusInternalServerError)
	}
}

type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath overrides "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath overrides "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
//
//	autoforge.WithReadinessCheck("db", db.Healthcheck(pool))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}

// normalizePrefix turns "admin/" into "/admin".
func normalizePrefix(p string) string {
	p = strings.Trim(p, "/")
	if p == "" {
		return ""
	}
	return "/" + p
}
