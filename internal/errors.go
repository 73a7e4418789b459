package internal

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/autoforge/pkg/assoc"
	"github.com/dmitrymomot/autoforge/pkg/model"
)

// ErrUnhandled is returned when a request names an unknown model, an unknown
// action, an action the model does not support, or a mutating action sent
// with a non-POST method. It never has side effects.
var ErrUnhandled = errors.New("autoforge: unhandled request")

// HTTPError carries everything an error handler needs to answer a request.
type HTTPError struct {
	// Err is the underlying error. It is logged, never shown.
	Err error

	// Message is the user-facing text.
	Message string

	// Title defaults to the status text.
	Title string

	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

// StatusText returns Title or the standard text of Code.
func (e *HTTPError) StatusText() string {
	if e.Title != "" {
		return e.Title
	}
	return http.StatusText(e.Code)
}

// HTTPErrorOption configures an HTTPError.
type HTTPErrorOption func(*HTTPError)

// NewHTTPError creates an HTTPError with the given status code and message.
func NewHTTPError(code int, message string, opts ...HTTPErrorOption) *HTTPError {
	e := &HTTPError{Code: code, Message: message}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithTitle(title string) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Title = title
	}
}

func WithError(err error) HTTPErrorOption {
	return func(e *HTTPError) {
		e.Err = err
	}
}

func ErrBadRequest(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message, opts...)
}

func ErrNotFound(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message, opts...)
}

func ErrConflict(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusConflict, message, opts...)
}

func ErrInternal(message string, opts ...HTTPErrorOption) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message, opts...)
}

// AsHTTPError extracts an HTTPError from the chain, or nil.
func AsHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

// ToHTTPError classifies any handler error. Fatal domain errors keep their
// distinct status so a stale association is not reported as a plain 404.
func ToHTTPError(err error) *HTTPError {
	if he := AsHTTPError(err); he != nil {
		return he
	}
	switch {
	case errors.Is(err, ErrUnhandled):
		return ErrNotFound("Unhandled Request", WithError(err))
	case errors.Is(err, model.ErrNotFound):
		return ErrNotFound("Record Not Found", WithError(err))
	case errors.Is(err, assoc.ErrStaleReference):
		return ErrConflict("The selected records changed, reload the page and try again", WithError(err))
	case errors.Is(err, assoc.ErrUnsavedParent):
		return ErrBadRequest("The record is not saved yet", WithError(err))
	default:
		return ErrInternal("Internal Server Error", WithError(err))
	}
}

// DefaultErrorHandler logs the error and answers with the mapped status as plain text.
func DefaultErrorHandler(c Context, err error) error {
	he := ToHTTPError(err)
	if he.Code >= http.StatusInternalServerError {
		c.LogError("request failed", "error", err, "status", he.Code)
	} else {
		c.LogWarn("request rejected", "error", err, "status", he.Code)
	}
	return c.String(he.Code, he.Message)
}
