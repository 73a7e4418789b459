package middlewares

import (
	"errors"
	"fmt"
)

// ErrCSRF is returned for POST requests without a matching CSRF token.
var ErrCSRF = errors.New("middlewares: csrf token mismatch")

// PanicError represents a recovered panic.
type PanicError struct {
	Value any    // the panic value
	Stack []byte // nil when stack capture is disabled
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// AsPanicError extracts the PanicError from an error if present.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
