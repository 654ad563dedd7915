package handlers

import (
	"context"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"amcmath/internal/logger"
	"amcmath/internal/models"
	"amcmath/internal/security"
)

// Middleware holds dependencies for middleware functions
type Middleware struct {
	tokens *security.TokenManager
	log    *logger.Logger
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(tokens *security.TokenManager, log *logger.Logger) *Middleware {
	return &Middleware{tokens: tokens, log: log}
}

func (m *Middleware) learner(r *http.Request) (*models.Learner, error) {
	token, err := security.BearerToken(r.Header.Get("Authorization"))
	if err != nil {
		return nil, err
	}
	return m.tokens.Verify(token)
}

// RequireAuth rejects requests without a valid bearer token
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learner, err := m.learner(r)
		if err != nil {
			respondWithError(w, r, m.log, err)
			return
		}
		ctx := context.WithValue(r.Context(), LearnerContextKey, learner)
		next(w, r.WithContext(ctx))
	}
}

// OptionalAuth attaches the learner when a valid token is sent. A missing or
// bad token is served as anonymous.
func (m *Middleware) OptionalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		learner, err := m.learner(r)
		if err != nil {
			if r.Header.Get("Authorization") != "" {
				m.log.Debug("ignoring bearer token", "path", r.URL.Path, "error", err)
			}
			next(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), LearnerContextKey, learner)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles a handler per learner, or per client IP when anonymous
func (m *Middleware) RateLimit(limiter *security.RateLimiter, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := security.GetClientIP(r)
		if learner := GetLearnerFromContext(r.Context()); learner != nil {
			key = "learner:" + learner.ID
		}
		if !limiter.Allow(key) {
			respondWithError(w, r, m.log, errRateLimited)
			return
		}
		next(w, r)
	}
}

// GetLearnerFromContext retrieves the learner from the request context
func GetLearnerFromContext(ctx context.Context) *models.Learner {
	learner, ok := ctx.Value(LearnerContextKey).(*models.Learner)
	if !ok {
		return nil
	}
	return learner
}

// RequestID tags each request with an id, reusing the caller's if sent
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID returns the id assigned by RequestID
func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDContextKey).(string)
	return id
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Logging logs each request with its status and duration
func (m *Middleware) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		m.log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", GetRequestID(r),
			"remote_addr", security.GetClientIP(r),
		)
	})
}

// Recovery turns a panic into a 500
func (m *Middleware) Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				m.log.Error("panic recovered",
					"panic", v,
					"stack", string(debug.Stack()),
					"request_id", GetRequestID(r),
					"method", r.Method,
					"path", r.URL.Path,
				)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: APIError{Code: CodeInternal, Message: ErrInternalServerError}})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS allows the configured origins. With no origins configured any origin
// is reflected.
func CORS(origins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (len(origins) == 0 || slices.Contains(origins, origin)) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				// credentials only for configured origins
				if len(origins) > 0 {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Authorization", RequestIDHeader}, ", "))
				h.Set("Access-Control-Expose-Headers", RequestIDHeader)
				h.Add("Vary", "Origin")
			}
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireReady answers 503 until startup has finished, except for the probes
func (m *Middleware) RequireReady(startup *StartupStatus) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !startup.IsReady() && r.URL.Path != "/health" && r.URL.Path != "/ready" {
				w.Header().Set("Retry-After", "2")
				respondWithError(w, r, m.log, errNotReady)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore keeps API responses out of shared caches
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// Chain wraps h with the given middleware, the first being outermost
func Chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
