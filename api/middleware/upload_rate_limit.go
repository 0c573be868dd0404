package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vidora/vidora-backend/api/responses"
	pkgerrors "github.com/vidora/vidora-backend/pkg/errors"
	"github.com/vidora/vidora-backend/pkg/logger"
)

// rateLimiter is satisfied by pkg/redis.Client.
type rateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimitPolicy caps requests per account within a fixed window.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int64
}

func NewRateLimitPolicy(name string, window time.Duration, limit int64) RateLimitPolicy {
	return RateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "uploads"
	}
	return p.name
}

// scope keys the counter by account, falling back to the client IP for
// unauthenticated routes.
func (p RateLimitPolicy) scope(r *http.Request) string {
	if id, ok := AccountIDFromContext(r.Context()); ok {
		return p.normalizedName() + ":account:" + id.Hex()
	}
	if ip := clientIP(r); ip != "" {
		return p.normalizedName() + ":ip:" + ip
	}
	return ""
}

// RateLimit throttles media mutations. A limiter error lets the request
// through.
func RateLimit(policy RateLimitPolicy, limiter rateLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || limiter == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := policy.scope(r)
			if scope == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, scope, policy.limit, policy.window)
			if err != nil {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy": policy.normalizedName(),
						"error":  err.Error(),
					}), "rate_limit.unavailable")
				}
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				if logg != nil {
					logg.Warn(logg.WithFields(ctx, map[string]any{
						"policy":         policy.normalizedName(),
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					}), "rate_limit.blocked")
				}
				w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "upload rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
