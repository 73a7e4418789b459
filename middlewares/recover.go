package middlewares

import (
	"runtime"

	"github.com/dmitrymomot/autoforge/internal"
)

// DefaultStackSize caps the captured stack trace in bytes.
const DefaultStackSize = 4096

type recoverConfig struct {
	stackSize int
}

// RecoverOption configures Recover.
type RecoverOption func(*recoverConfig)

// WithStackSize sets the captured stack size. Zero disables stack capture.
func WithStackSize(size int) RecoverOption {
	return func(cfg *recoverConfig) {
		cfg.stackSize = max(size, 0)
	}
}

// Recover turns a panicking action into a *PanicError for the error handler,
// which answers it with 500 like any other fatal error.
func Recover(opts ...RecoverOption) internal.Middleware {
	cfg := &recoverConfig{stackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				pe := &PanicError{Value: r}
				if cfg.stackSize > 0 {
					buf := make([]byte, cfg.stackSize)
					pe.Stack = buf[:runtime.Stack(buf, false)]
				}
				c.LogError("panic recovered", "panic", r, "stack", string(pe.Stack))
				err = pe
			}()
			return next(c)
		}
	}
}
