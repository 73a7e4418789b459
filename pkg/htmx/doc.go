// Package htmx holds the small part of the htmx protocol the admin relies on:
// detecting htmx requests and redirecting them with HX-Redirect instead of a
// 3xx that the browser would follow inside an XHR.
package htmx
