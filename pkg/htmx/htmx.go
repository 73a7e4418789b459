package htmx

import "net/http"

const (
	HeaderRequest  = "HX-Request"
	HeaderBoosted  = "HX-Boosted"
	HeaderRedirect = "HX-Redirect"
)

// IsHTMX reports whether the request was issued by htmx.
func IsHTMX(r *http.Request) bool {
	return r.Header.Get(HeaderRequest) == "true"
}

// IsPartial reports whether the client swaps the response into part of the
// page. Boosted links and forms replace the whole body and want the layout.
func IsPartial(r *http.Request) bool {
	return IsHTMX(r) && r.Header.Get(HeaderBoosted) != "true"
}
