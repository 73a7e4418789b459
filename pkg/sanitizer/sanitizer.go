// Package sanitizer cleans submitted form values before they reach a Record.
package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Func rewrites one submitted value.
type Func func(string) string

var strict = sync.OnceValue(bluemonday.StrictPolicy)

// Strip removes all markup and returns plain text. Values without a tag are
// only trimmed, so literal entities survive. When markup was stripped the
// result is decoded, since values are escaped again when rendered; entities
// typed next to a tag come back as characters.
func Strip(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "<") {
		return s
	}
	return html.UnescapeString(strings.TrimSpace(strict().Sanitize(s)))
}

// Policy sanitizes with a custom bluemonday policy. A nil policy keeps
// values unchanged.
func Policy(p *bluemonday.Policy) Func {
	if p == nil {
		return func(s string) string { return s }
	}
	return func(s string) string { return strings.TrimSpace(p.Sanitize(s)) }
}

// Values applies fn to every value in place.
func Values(vals map[string]string, fn Func) {
	if fn == nil {
		return
	}
	for k, v := range vals {
		vals[k] = fn(v)
	}
}
