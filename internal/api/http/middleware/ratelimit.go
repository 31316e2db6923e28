package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/dtroode/alumni-connect-server/internal/api/http/response"
	"github.com/dtroode/alumni-connect-server/internal/apierror"
	"github.com/dtroode/alumni-connect-server/internal/logger"
	"github.com/dtroode/alumni-connect-server/internal/ratelimit"
)

// RateLimitRecorder counts rejected requests.
type RateLimitRecorder interface {
	IncrementRateLimited(scope string)
}

// RateLimit throttles requests per client address within a scope.
type RateLimit struct {
	limiter  ratelimit.Limiter
	scope    string
	recorder RateLimitRecorder
	logger   *logger.Logger
}

// NewRateLimit creates a RateLimit middleware. A nil recorder is allowed.
func NewRateLimit(limiter ratelimit.Limiter, scope string, recorder RateLimitRecorder, logger *logger.Logger) *RateLimit {
	return &RateLimit{
		limiter:  limiter,
		scope:    scope,
		recorder: recorder,
		logger:   logger,
	}
}

// Handle rejects requests over the limit with 429. When the limiter backend
// fails the request is let through.
func (m *RateLimit) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := m.scope + ":" + clientIP(r)

		decision, err := m.limiter.Allow(r.Context(), key)
		if err != nil {
			m.logger.Warn("RateLimit middleware: limiter unavailable",
				"scope", m.scope,
				"error", err.Error())
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			if m.recorder != nil {
				m.recorder.IncrementRateLimited(m.scope)
			}
			seconds := int(decision.RetryAfter.Seconds())
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			response.Error(w, m.logger, apierror.NewErrTooManyRequests())
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
