package internal

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrymomot/autoforge/pkg/logger"
	"github.com/dmitrymomot/autoforge/pkg/model"
	"github.com/dmitrymomot/autoforge/pkg/sanitizer"
)

// MaxFormBytes caps urlencoded request bodies.
const MaxFormBytes = 1 << 20

type (
	modelKey  struct{}
	actionKey struct{}
)

// ModelExtractor adds the dispatched model name to log entries.
func ModelExtractor() logger.ContextExtractor {
	return logger.ValueExtractor(modelKey{}, "model")
}

// ActionExtractor adds the dispatched action keyword to log entries.
func ActionExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if a, ok := ctx.Value(actionKey{}).(model.Action); ok {
			return slog.String("action", a.String()), true
		}
		return slog.Attr{}, false
	}
}

// Request is the normalized view of one admin request.
type Request struct {
	// Values holds every submitted value, query and body merged.
	Values url.Values
	// Query holds only the query string values.
	Query url.Values
	// Params holds the submitted model fields, keyed by column name.
	Params map[string]string
	csrf   func() string

	Method   string
	Path     string
	Model    string
	Keyword  string
	ID       string
	RawQuery string
	Action   model.Action

	// invalid is set by handlers that re-rendered a form with validation errors.
	invalid bool
}

// ParseForm caps the body of a POST request at MaxFormBytes and parses the
// submitted values. Middlewares that read form values before the admin must
// call it first; later calls reuse the parsed form.
func ParseForm(c Context) error {
	r := c.Request()
	if r.Body != nil && r.Method == http.MethodPost && r.PostForm == nil {
		r.Body = http.MaxBytesReader(c.Response(), r.Body, MaxFormBytes)
	}
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewHTTPError(http.StatusRequestEntityTooLarge, "Request Too Large", WithError(err))
		}
		return ErrBadRequest("Malformed form submission", WithError(err))
	}
	return nil
}

// newRequest reads the route parameters and the submitted values of c.
// The id comes from the path, or from an "id" value submitted by a
// record selection form.
func newRequest(c Context, m *model.Model, csrf func(Context) string, clean sanitizer.Func) (*Request, error) {
	if err := ParseForm(c); err != nil {
		return nil, err
	}
	r := c.Request()

	keyword := c.Param("action")
	action, _ := model.ParseAction(keyword)
	req := &Request{
		Values:   r.Form,
		Query:    r.URL.Query(),
		Params:   modelParams(r.Form, m.ParamsName()),
		Method:   r.Method,
		Path:     r.URL.Path,
		Model:    m.Name(),
		Keyword:  keyword,
		ID:       c.Param("id"),
		RawQuery: r.URL.RawQuery,
		Action:   action,
		csrf:     func() string { return "" },
	}
	if req.ID == "" {
		req.ID = strings.TrimSpace(r.Form.Get("id"))
	}
	if csrf != nil {
		req.csrf = func() string { return csrf(c) }
	}
	sanitizer.Values(req.Params, clean)
	return req, nil
}

// modelParams collects "artist[name]" style keys. The last value wins, so a
// checked checkbox overrides its hidden false input.
func modelParams(form url.Values, namespace string) map[string]string {
	out := make(map[string]string)
	prefix := namespace + "["
	for key, vals := range form {
		if len(vals) == 0 || !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, "]") {
			continue
		}
		out[key[len(prefix):len(key)-1]] = vals[len(vals)-1]
	}
	return out
}

// CSRF returns the token for hidden form fields, or "" when CSRF is off.
func (r *Request) CSRF() string {
	return r.csrf()
}

// HasID reports whether the request names a record or page.
func (r *Request) HasID() bool {
	return r.ID != ""
}

// Key parses the id as a primary key.
func (r *Request) Key() (int64, bool) {
	k, err := strconv.ParseInt(r.ID, 10, 64)
	return k, err == nil && k > 0
}

// PageNumber parses the id as a 1-based page number. Anything else is page 1.
func (r *Request) PageNumber() int {
	n, err := strconv.Atoi(r.ID)
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// paramName is the form name of a model column, e.g. "artist[name]".
func paramName(m *model.Model, column string) string {
	return m.ParamsName() + "[" + column + "]"
}
