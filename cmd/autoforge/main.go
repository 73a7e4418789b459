// Command autoforge serves the admin for the models declared in a YAML
// manifest, backed by PostgreSQL.
package main

import (
	"context"
	"embed"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/autoforge"
	"github.com/dmitrymomot/autoforge/middlewares"
	"github.com/dmitrymomot/autoforge/pkg/db"
	"github.com/dmitrymomot/autoforge/pkg/flash"
	"github.com/dmitrymomot/autoforge/pkg/logger"
	"github.com/dmitrymomot/autoforge/pkg/metrics"
	"github.com/dmitrymomot/autoforge/pkg/model"
	"github.com/dmitrymomot/autoforge/pkg/sanitizer"
	"github.com/dmitrymomot/autoforge/pkg/store/pgstore"
)

//go:embed migrations/*.sql
var migrations embed.FS

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log := logger.NewWithSentry(cfg.Log, cfg.Sentry,
		middlewares.RequestIDExtractor(),
		autoforge.ModelExtractor(),
		autoforge.ActionExtractor(),
	)

	manifest, err := model.LoadManifestFile(cfg.Manifest)
	if err != nil {
		return err
	}
	reg, err := manifest.Registry()
	if err != nil {
		return err
	}
	flashes, err := newFlash(cfg)
	if err != nil {
		return err
	}

	pool, err := db.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	if err := db.Migrate(ctx, pool, migrations, "migrations", cfg.DB.MigrationsTable, log); err != nil {
		pool.Close()
		return err
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app := autoforge.New(
		autoforge.WithRegistry(reg),
		autoforge.WithStore(pgstore.New(pool, pgstore.WithLogger(log))),
		autoforge.WithPrefix(cfg.Prefix),
		autoforge.WithLogger(log),
		autoforge.WithFlash(flashes),
		autoforge.WithMetrics(metrics.New(promReg)),
		autoforge.WithSanitizer(sanitizer.Strip),
		autoforge.WithMiddleware(
			middlewares.RequestID(),
			middlewares.AccessLog(),
			middlewares.Recover(),
			middlewares.CSRF(middlewares.WithCSRFSecure(cfg.SecureCookies)),
		),
		autoforge.WithCSRF(middlewares.CSRFToken),
		autoforge.WithHandlers(metricsHandler{
			path: cfg.MetricsPath,
			h:    promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}),
		}),
		autoforge.WithHealthChecks(
			autoforge.WithReadinessCheck("postgres", db.Healthcheck(pool)),
		),
	)

	log.Info("starting admin",
		"addr", cfg.Addr,
		"prefix", cfg.Prefix,
		"models", len(reg.Models()),
	)
	return app.Run(cfg.Addr,
		autoforge.Logger(log),
		autoforge.ShutdownTimeout(cfg.ShutdownTimeout),
		autoforge.ShutdownHook(db.Shutdown(pool)),
	)
}

// newFlash uses COOKIE_SECRET when set. A random key works for a single
// instance but drops pending messages on restart.
func newFlash(cfg config) (*flash.Manager, error) {
	opts := []flash.Option{flash.WithSecure(cfg.SecureCookies)}
	if strings.TrimSpace(cfg.CookieSecret) == "" {
		return flash.NewRandom(opts...)
	}
	return flash.New(cfg.CookieSecret, opts...)
}

type metricsHandler struct {
	path string
	h    http.Handler
}

func (m metricsHandler) Routes(r autoforge.Router) {
	r.Mount(m.path, m.h)
}
