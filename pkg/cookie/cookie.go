package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strings"
)

var (
	ErrNotFound  = errors.New("cookie: not found")
	ErrNoSecret  = errors.New("cookie: secret required")
	ErrBadSecret = errors.New("cookie: secret must be 32+ bytes")
	ErrBadSig    = errors.New("cookie: invalid signature")
	ErrDecrypt   = errors.New("cookie: decryption failed")
)

const minSecret = 32

var enc = base64.RawURLEncoding

// Manager writes cookies with shared attributes. Without a secret only
// plain cookies are available.
type Manager struct {
	secret   []byte
	aead     cipher.AEAD
	domain   string
	path     string
	secure   bool
	httpOnly bool
	sameSite http.SameSite
	err      error
}

// Option configures the Manager.
type Option func(*Manager)

// New creates a Manager. An option error, such as a short secret, is returned here.
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.secret != nil {
		key := sha256.Sum256(m.secret)
		block, err := aes.NewCipher(key[:])
		if err != nil {
			return nil, err
		}
		if m.aead, err = cipher.NewGCM(block); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// WithSecret enables signing and encryption. The secret must be at least 32 bytes.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		if len(secret) < minSecret {
			m.err = ErrBadSecret
			return
		}
		m.secret = []byte(secret)
	}
}

// WithRandomSecret enables signing and encryption with a per-process key.
// Values do not survive a restart.
func WithRandomSecret() Option {
	return func(m *Manager) {
		secret := make([]byte, minSecret)
		if _, err := io.ReadFull(rand.Reader, secret); err != nil {
			m.err = err
			return
		}
		m.secret = secret
	}
}

func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

// WithPath sets the cookie path. Defaults to "/".
func WithPath(path string) Option {
	return func(m *Manager) {
		if path != "" {
			m.path = path
		}
	}
}

func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithSameSite overrides SameSite=Lax.
func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = ss
	}
}

// Get returns a plain cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return c.Value, nil
}

// Set writes a plain cookie. maxAge 0 makes a session cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	})
}

// Delete expires a cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	m.Set(w, name, "", -1)
}

func (m *Manager) sign(value []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(value)
	return mac.Sum(nil)
}

// GetSigned returns the value of a cookie written by SetSigned.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if m.secret == nil {
		return "", ErrNoSecret
	}
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	v, s, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}
	value, err := enc.DecodeString(v)
	if err != nil {
		return "", ErrBadSig
	}
	sig, err := enc.DecodeString(s)
	if err != nil || !hmac.Equal(sig, m.sign(value)) {
		return "", ErrBadSig
	}
	return string(value), nil
}

// SetSigned writes a tamper-evident but readable cookie.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, maxAge int) error {
	if m.secret == nil {
		return ErrNoSecret
	}
	m.Set(w, name, enc.EncodeToString([]byte(value))+"."+enc.EncodeToString(m.sign([]byte(value))), maxAge)
	return nil
}

// GetEncrypted returns the plaintext of a cookie written by SetEncrypted.
func (m *Manager) GetEncrypted(r *http.Request, name string) ([]byte, error) {
	if m.aead == nil {
		return nil, ErrNoSecret
	}
	raw, err := m.Get(r, name)
	if err != nil {
		return nil, err
	}
	sealed, err := enc.DecodeString(raw)
	if err != nil {
		return nil, ErrDecrypt
	}
	n := m.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrDecrypt
	}
	plain, err := m.aead.Open(nil, sealed[:n], sealed[n:], []byte(name))
	if err != nil {
		return nil, ErrDecrypt
	}
	return plain, nil
}

// SetEncrypted writes a sealed cookie. The cookie name is bound as
// additional data, so a value cannot be replayed under another name.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name string, plain []byte, maxAge int) error {
	if m.aead == nil {
		return ErrNoSecret
	}
	nonce := make([]byte, m.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	m.Set(w, name, enc.EncodeToString(m.aead.Seal(nonce, nonce, plain, []byte(name))), maxAge)
	return nil
}
