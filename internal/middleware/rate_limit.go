package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/ape-stjoseph/tombola-api/internal/services"
	pkghttp "github.com/ape-stjoseph/tombola-api/pkg/http"
)

// RateLimitPolicy is one fixed-window budget applied to a route group.
type RateLimitPolicy struct {
	MaxRequests int
	Window      time.Duration
}

// AuthRateLimitPolicy is the budget for credential endpoints. It is
// deliberately not configurable: 5 attempts per minute per client.
func AuthRateLimitPolicy() RateLimitPolicy {
	return RateLimitPolicy{MaxRequests: 5, Window: 60 * time.Second}
}

// RateLimit enforces a storage-backed fixed window keyed by
// (client identifier, request path). Storage failures fail open: a
// broken counter must not take the site down with it.
func RateLimit(svc *services.RateLimitService, policy RateLimitPolicy, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier := pkghttp.ClientIdentifier(r)

			decision, err := svc.Check(r.Context(), identifier, r.URL.Path, policy.MaxRequests, policy.Window)
			if err != nil {
				logger.Error("rate limit check failed, allowing request",
					slog.String("path", r.URL.Path),
					slog.Any("error", err))
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Allowed {
				retryAfter := int64(time.Until(decision.ResetAt).Seconds())
				if retryAfter < 1 {
					retryAfter = 1
				}
				pkghttp.WriteRateLimited(w, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// EdgeBurstLimit is a cheap in-memory limiter in front of the
// storage-backed one; it sheds floods before they reach the database.
func EdgeBurstLimit(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteRateLimited(w, 60)
		}),
	)
}
