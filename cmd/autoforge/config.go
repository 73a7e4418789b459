package main

import (
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/autoforge/pkg/db"
	"github.com/dmitrymomot/autoforge/pkg/logger"
)

type config struct {
	Addr            string        `env:"ADDRESS" envDefault:":8080"`
	Prefix          string        `env:"ADMIN_PREFIX" envDefault:"/admin"`
	Manifest        string        `env:"MODELS_MANIFEST" envDefault:"models.yaml"`
	CookieSecret    string        `env:"COOKIE_SECRET"`
	SecureCookies   bool          `env:"SECURE_COOKIES" envDefault:"false"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	MetricsPath     string        `env:"METRICS_PATH" envDefault:"/metrics"`

	DB     db.Config
	Log    logger.Config
	Sentry logger.SentryConfig
}

func loadConfig() (config, error) {
	return env.ParseAs[config]()
}
