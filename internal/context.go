package internal

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/autoforge/pkg/flash"
	"github.com/dmitrymomot/autoforge/pkg/htmx"
)

// Component is the interface for renderable templates.
// This is compatible with templ.Component.
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}

// Context provides request/response access and helper methods.
// It also implements context.Context by delegating to the underlying request context.
type Context interface {
	context.Context

	// Request returns the underlying *http.Request.
	Request() *http.Request

	// Response returns the underlying http.ResponseWriter.
	Response() http.ResponseWriter

	// Context returns the request's context.Context.
	Context() context.Context

	// Param returns the URL parameter value by name.
	Param(name string) string

	// Query returns the query parameter value by name.
	Query(name string) string

	// Form returns the form value by name, parsing the body on first access.
	Form(name string) string

	Header(name string) string
	SetHeader(name, value string)

	// String writes a plain text response with the given status code.
	String(code int, s string) error

	// NoContent writes a response with no body.
	NoContent(code int) error

	// Redirect redirects to url. htmx requests get an HX-Redirect header instead.
	Redirect(code int, url string) error

	// Error creates an HTTPError without writing a response.
	Error(code int, message string, opts ...HTTPErrorOption) *HTTPError

	// IsHTMX returns true if the request originated from htmx.
	IsHTMX() bool

	// Render writes component as HTML with the given status code.
	// For htmx requests the status is always 200.
	Render(code int, component Component) error

	// Written returns true if a response has already been written.
	Written() bool

	Logger() *slog.Logger
	LogDebug(msg string, attrs ...any)
	LogInfo(msg string, attrs ...any)
	LogWarn(msg string, attrs ...any)
	LogError(msg string, attrs ...any)

	// Set stores a value in the request context.
	Set(key any, value any)

	// Get retrieves a value from the request context.
	Get(key any) any

	// Flash returns the messages carried over from the previous request
	// followed by the ones added with FlashNow.
	Flash() []flash.Message

	// SetFlash queues messages for the next request. The cookie is written
	// right before the response headers.
	SetFlash(msgs ...flash.Message)

	// FlashNow adds messages to the current response only.
	FlashNow(msgs ...flash.Message)

	// ResponseWriter returns the wrapped writer.
	ResponseWriter() *ResponseWriter
}

type requestContext struct {
	response       http.ResponseWriter
	request        *http.Request
	responseWriter *ResponseWriter
	logger         *slog.Logger
	flashes        *flash.Manager

	incoming    []flash.Message
	now         []flash.Message
	pending     []flash.Message
	flashRead   bool
	flashQueued bool
}

func newContext(w http.ResponseWriter, r *http.Request, app *App) *requestContext {
	// app middleware and the route handler share one writer and its hooks
	rw, ok := w.(*ResponseWriter)
	if !ok {
		rw = NewResponseWriter(w, htmx.IsHTMX(r))
	}
	return &requestContext{
		request:        r,
		response:       rw,
		responseWriter: rw,
		logger:         app.logger,
		flashes:        app.flash,
	}
}

func (c *requestContext) Request() *http.Request {
	return c.request
}

func (c *requestContext) Response() http.ResponseWriter {
	return c.response
}

func (c *requestContext) Context() context.Context {
	return c.request.Context()
}

func (c *requestContext) Param(name string) string {
	return chi.URLParam(c.request, name)
}

func (c *requestContext) Query(name string) string {
	return c.request.URL.Query().Get(name)
}

func (c *requestContext) Form(name string) string {
	return c.request.FormValue(name)
}

func (c *requestContext) Deadline() (time.Time, bool) {
	return c.request.Context().Deadline()
}

func (c *requestContext) Done() <-chan struct{} {
	return c.request.Context().Done()
}

func (c *requestContext) Err() error {
	return c.request.Context().Err()
}

func (c *requestContext) Value(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Header(name string) string {
	return c.request.Header.Get(name)
}

func (c *requestContext) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

func (c *requestContext) String(code int, s string) error {
	c.response.Header().Set("Content-Type", "text/plain; charset=utf-8")
	c.response.WriteHeader(code)
	_, err := c.response.Write([]byte(s))
	return err
}

func (c *requestContext) NoContent(code int) error {
	c.response.WriteHeader(code)
	return nil
}

func (c *requestContext) Redirect(code int, url string) error {
	htmx.Redirect(c.response, c.request, url, code)
	return nil
}

func (c *requestContext) Error(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(code, message, opts...)
}

func (c *requestContext) IsHTMX() bool {
	return htmx.IsHTMX(c.request)
}

func (c *requestContext) Render(code int, component Component) error {
	c.response.Header().Set("Content-Type", "text/html; charset=utf-8")
	c.response.WriteHeader(code)
	return component.Render(c.request.Context(), c.response)
}

func (c *requestContext) Written() bool {
	return c.responseWriter.Written()
}

func (c *requestContext) Logger() *slog.Logger {
	return c.logger
}

func (c *requestContext) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogWarn(msg string, attrs ...any) {
	c.logger.WarnContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c.request.Context(), msg, attrs...)
}

func (c *requestContext) Set(key, value any) {
	ctx := context.WithValue(c.request.Context(), key, value)
	c.request = c.request.WithContext(ctx)
}

func (c *requestContext) Get(key any) any {
	return c.request.Context().Value(key)
}

func (c *requestContext) Flash() []flash.Message {
	if !c.flashRead {
		c.flashRead = true
		msgs, err := c.flashes.Pop(c.response, c.request)
		if err != nil {
			// a cookie from a rotated secret is dropped, not fatal
			c.LogWarn("discarding flash cookie", "error", err)
		}
		c.incoming = msgs
	}
	out := make([]flash.Message, 0, len(c.incoming)+len(c.now))
	out = append(out, c.incoming...)
	return append(out, c.now...)
}

func (c *requestContext) SetFlash(msgs ...flash.Message) {
	c.pending = append(c.pending, msgs...)
	if c.flashQueued {
		return
	}
	c.flashQueued = true
	c.responseWriter.OnBeforeWrite(func() {
		if err := c.flashes.Set(c.responseWriter.ResponseWriter, c.pending...); err != nil {
			c.LogError("failed to write flash cookie", "error", err)
		}
	})
}

func (c *requestContext) FlashNow(msgs ...flash.Message) {
	c.now = append(c.now, msgs...)
}

func (c *requestContext) ResponseWriter() *ResponseWriter {
	return c.responseWriter
}
