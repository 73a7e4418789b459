// Package flash carries one-shot notice and error messages across a redirect
// in an AES-GCM encrypted cookie.
package flash

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrymomot/autoforge/pkg/cookie"
)

var (
	ErrBadSecret = cookie.ErrBadSecret
	ErrDecrypt   = cookie.ErrDecrypt
)

// Kind is the banner style of a message.
type Kind string

const (
	Notice Kind = "notice"
	Error  Kind = "error"
)

// Message is one banner.
type Message struct {
	Kind Kind   `json:"k"`
	Text string `json:"t"`
}

// Manager stores messages for the next request in an encrypted cookie.
type Manager struct {
	cookies *cookie.Manager
	name    string
	path    string
	secure  bool
}

// Option configures the Manager.
type Option func(*Manager)

// WithCookieName overrides the default "_flash" cookie name.
func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.name = name
		}
	}
}

// WithPath sets the cookie path.
func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

// WithSecure sets the Secure flag.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// New creates a Manager. The secret must be at least 32 bytes.
func New(secret string, opts ...Option) (*Manager, error) {
	return build(cookie.WithSecret(secret), opts)
}

// NewRandom creates a Manager with a random secret. Messages do not survive a restart.
func NewRandom(opts ...Option) (*Manager, error) {
	return build(cookie.WithRandomSecret(), opts)
}

func build(secret cookie.Option, opts []Option) (*Manager, error) {
	m := &Manager{name: "_flash"}
	for _, opt := range opts {
		opt(m)
	}
	cookies, err := cookie.New(secret, cookie.WithPath(m.path), cookie.WithSecure(m.secure))
	if err != nil {
		return nil, err
	}
	m.cookies = cookies
	return m, nil
}

// Set replaces the pending messages.
func (m *Manager) Set(w http.ResponseWriter, msgs ...Message) error {
	if len(msgs) == 0 {
		m.cookies.Delete(w, m.name)
		return nil
	}
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	return m.cookies.SetEncrypted(w, m.name, data, 0)
}

// Pop returns the pending messages and deletes the cookie.
// A missing cookie yields no messages; a tampered one yields ErrDecrypt.
func (m *Manager) Pop(w http.ResponseWriter, r *http.Request) ([]Message, error) {
	plain, err := m.cookies.GetEncrypted(r, m.name)
	if errors.Is(err, cookie.ErrNotFound) {
		return nil, nil
	}
	m.cookies.Delete(w, m.name)
	if err != nil {
		return nil, err
	}
	var msgs []Message
	if err := json.Unmarshal(plain, &msgs); err != nil {
		return nil, errors.Join(ErrDecrypt, err)
	}
	return msgs, nil
}
