package middlewares

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"net/http"

	"github.com/dmitrymomot/autoforge/internal"
	"github.com/dmitrymomot/autoforge/pkg/cookie"
	"github.com/dmitrymomot/autoforge/pkg/form"
)

const csrfTokenBytes = 32

type csrfKey struct{}

type csrfConfig struct {
	cookieName string
	path       string
	secure     bool
}

// CSRFOption configures CSRF.
type CSRFOption func(*csrfConfig)

// WithCSRFCookie sets the cookie name and path. Defaults are "_csrf" and "/".
func WithCSRFCookie(name, path string) CSRFOption {
	return func(cfg *csrfConfig) {
		if name != "" {
			cfg.cookieName = name
		}
		if path != "" {
			cfg.path = path
		}
	}
}

// WithCSRFSecure marks the cookie Secure.
func WithCSRFSecure(secure bool) CSRFOption {
	return func(cfg *csrfConfig) {
		cfg.secure = secure
	}
}

// CSRF protects POST requests with a double-submit cookie. Every POST form
// rendered by the admin carries the token in its hidden "_csrf" field; pass
// CSRFToken to autoforge.WithCSRF so forms pick it up.
func CSRF(opts ...CSRFOption) internal.Middleware {
	cfg := &csrfConfig{cookieName: "_csrf", path: "/"}
	for _, opt := range opts {
		opt(cfg)
	}
	// plain cookies only; New cannot fail without a secret
	cookies, _ := cookie.New(cookie.WithPath(cfg.path), cookie.WithSecure(cfg.secure), cookie.WithSameSite(http.SameSiteLaxMode))

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			token, err := cookies.Get(c.Request(), cfg.cookieName)
			if err != nil || !validToken(token) {
				if token, err = newToken(); err != nil {
					return err
				}
				cookies.Set(c.Response(), cfg.cookieName, token, 0)
			}
			c.Set(csrfKey{}, token)

			if c.Request().Method == http.MethodPost {
				if err := internal.ParseForm(c); err != nil {
					return err
				}
				sent := c.Request().PostFormValue(form.CSRFField)
				if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
					c.LogWarn("csrf token mismatch")
					return internal.NewHTTPError(http.StatusForbidden, "Invalid CSRF token", internal.WithError(ErrCSRF))
				}
			}
			return next(c)
		}
	}
}

// CSRFToken returns the token of the current request, or "" outside CSRF.
func CSRFToken(c internal.Context) string {
	token, _ := c.Get(csrfKey{}).(string)
	return token
}

func newToken() (string, error) {
	b := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func validToken(s string) bool {
	b, err := base64.RawURLEncoding.DecodeString(s)
	return err == nil && len(b) == csrfTokenBytes
}
