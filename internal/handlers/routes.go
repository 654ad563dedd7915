package handlers

import (
	"net/http"

	"amcmath/internal/security"
)

// Router bundles the handlers mounted by NewRouter
type Router struct {
	Middleware *Middleware
	Health     *HealthHandler
	Paths      *PathsHandler
	Problems   *ProblemHandler
	Attempts   *security.RateLimiter
	Startup    *StartupStatus
	Origins    []string
}

// Handler registers every route and wraps the mux in the middleware chain
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	m := rt.Middleware

	mux.HandleFunc("GET /health", rt.Health.Health)
	mux.HandleFunc("GET /ready", rt.Health.Ready)

	mux.HandleFunc("GET /paths", m.OptionalAuth(rt.Paths.List))
	mux.HandleFunc("GET /paths/{slug}", m.OptionalAuth(rt.Paths.Get))

	mux.HandleFunc("GET /problems/{id}", rt.Problems.Get)
	mux.HandleFunc("GET /problems/{id}/summary", m.RequireAuth(rt.Problems.Summary))
	mux.HandleFunc("POST /problems/{id}/attempts", m.RequireAuth(m.RateLimit(rt.Attempts, rt.Problems.SubmitAttempt)))

	return Chain(mux,
		RequestID,
		m.Recovery,
		m.Logging,
		CORS(rt.Origins),
		NoStore,
		m.RequireReady(rt.Startup),
	)
}
