// Package middlewares provides autoforge middleware.
//
// # Request ID
//
// RequestID tags each request with an upstream X-Request-ID or a new UUID.
// Pair it with RequestIDExtractor so every log line carries request_id:
//
//	log := logger.New(cfg, middlewares.RequestIDExtractor(), autoforge.ModelExtractor())
//	app := autoforge.New(
//	    autoforge.WithLogger(log),
//	    autoforge.WithMiddleware(middlewares.RequestID()),
//	)
//
// # Access log
//
// AccessLog writes one "request" line per request with status, size and
// duration, at warn level for 4xx and error level for 5xx.
//
// # Recover
//
// Recover converts panics into *PanicError, which the error handler answers
// with 500.
//
// # CSRF
//
// CSRF rejects POST requests whose "_csrf" form value does not match the
// token cookie. CSRFToken feeds the token into the admin forms:
//
//	autoforge.New(
//	    autoforge.WithMiddleware(middlewares.CSRF()),
//	    autoforge.WithCSRF(middlewares.CSRFToken),
//	)
package middlewares
