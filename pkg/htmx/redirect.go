package htmx

import "net/http"

// Redirect answers htmx requests with HX-Redirect and a 200, since htmx only
// follows the header on a 2xx. Other clients get a Location with status.
func Redirect(w http.ResponseWriter, r *http.Request, url string, status int) {
	if !IsHTMX(r) {
		http.Redirect(w, r, url, status)
		return
	}
	w.Header().Set(HeaderRedirect, url)
	w.WriteHeader(http.StatusOK)
}
