package model

import (
	"errors"
	"sort"
	"strings"
)

var (
	ErrNotFound        = errors.New("model: record not found")
	ErrUnknownAction   = errors.New("model: unknown action")
	ErrUnknownModel    = errors.New("model: unknown model")
	ErrInvalidConfig   = errors.New("model: invalid configuration")
	ErrHookAborted     = errors.New("model: hook aborted")
	ErrInvalidManifest = errors.New("model: invalid manifest")
)

// ValidationErrors maps a column name to its messages.
// A non-empty value is the only recoverable save failure.
type ValidationErrors map[string][]string

// Add appends a message for the column.
func (v ValidationErrors) Add(column, message string) {
	v[column] = append(v[column], message)
}

// Has reports whether any message is recorded for the column.
func (v ValidationErrors) Has(column string) bool {
	return len(v[column]) > 0
}

// First returns the first message for the column, or "".
func (v ValidationErrors) First(column string) string {
	if msgs := v[column]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Merge copies all messages of other into v.
func (v ValidationErrors) Merge(other ValidationErrors) {
	for col, msgs := range other {
		v[col] = append(v[col], msgs...)
	}
}

// Error implements error so stores can return validation failures.
func (v ValidationErrors) Error() string {
	cols := make([]string, 0, len(v))
	for col := range v {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, col+" "+strings.Join(v[col], ", "))
	}
	return "model: validation failed: " + strings.Join(parts, "; ")
}

// AsValidationErrors extracts ValidationErrors from err.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var ve ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		return ve, true
	}
	return nil, false
}
