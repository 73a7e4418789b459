package internal

// Handler declares routes on a router.
//
// The admin itself is a Handler; extra pages can be mounted next to it:
//
//	type StatusHandler struct{}
//
//	func (h StatusHandler) Routes(r autoforge.Router) {
//	    r.GET("/", h.index)
//	}
type Handler interface {
	Routes(r Router)
}

// HandlerFunc is the signature for route handlers.
// Returning a non-nil error hands the request to the error handler.
type HandlerFunc func(c Context) error

// Middleware wraps a HandlerFunc. It may short-circuit the request by
// returning without calling next.
type Middleware func(next HandlerFunc) HandlerFunc

// ErrorHandler handles errors returned from handlers.
type ErrorHandler func(Context, error) error
