// Package health serves liveness and readiness probes.
//
// Readiness runs every registered [Checks] entry in parallel under a shared
// timeout. Responses are plain text unless the client asks for JSON with an
// Accept header or ?format=json:
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "postgres": db.Healthcheck(pool),
//	}, health.WithTimeout(3*time.Second)))
package health
