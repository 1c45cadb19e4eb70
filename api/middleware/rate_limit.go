package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/accounts-backend/api/responses"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
)

type windowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit throttles authenticated traffic per user, falling back to the
// client IP when no user is on the context. A zero limit disables it.
func RateLimit(limiter windowLimiter, limit int, window time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 || window <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			scope := "api:ip:" + clientIP(r)
			if userID := UserIDFromContext(ctx); userID != "" {
				scope = "api:user:" + userID
			}

			allowed, count, err := limiter.FixedWindowAllow(ctx, scope, int64(limit), window)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if !allowed {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{"scope": scope, "attempts": count, "limit": limit})
					logg.Warn(logCtx, "api.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
