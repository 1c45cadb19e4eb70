package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/accounts-backend/api/responses"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
)

// maxCredentialBody caps how much of a login/register body is buffered.
const maxCredentialBody = 64 << 10

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// throttleRule counts attempts for one dimension of a request.
type throttleRule struct {
	dimension string
	limit     int64
	subject   func(r *http.Request, body []byte) string
}

// AuthRateLimitPolicy throttles a credential endpoint per client IP and per username.
type AuthRateLimitPolicy struct {
	name   string
	window time.Duration
	rules  []throttleRule
}

func NewAuthRateLimitPolicy(name string, window time.Duration, ipLimit, usernameLimit int) AuthRateLimitPolicy {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		name = "auth"
	}
	p := AuthRateLimitPolicy{name: name, window: window}
	if ipLimit > 0 {
		p.rules = append(p.rules, throttleRule{dimension: "ip", limit: int64(ipLimit), subject: ipSubject})
	}
	if usernameLimit > 0 {
		p.rules = append(p.rules, throttleRule{dimension: "user", limit: int64(usernameLimit), subject: usernameSubject})
	}
	return p
}

func (p AuthRateLimitPolicy) enabled() bool {
	return p.window > 0 && len(p.rules) > 0
}

func (p AuthRateLimitPolicy) needsBody() bool {
	for _, rule := range p.rules {
		if rule.dimension == "user" {
			return true
		}
	}
	return false
}

func (p AuthRateLimitPolicy) key(dimension, subject string) string {
	return "auth:" + p.name + ":" + dimension + ":" + subject
}

// AuthRateLimit rejects a request with 429 once any rule of policy is exhausted
// inside the policy window. The request body is restored for the next handler.
func AuthRateLimit(policy AuthRateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if policy.needsBody() && r.Body != nil {
				raw, err := io.ReadAll(io.LimitReader(r.Body, maxCredentialBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				body = raw
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			for _, rule := range policy.rules {
				subject := rule.subject(r, body)
				if subject == "" {
					continue
				}
				count, err := store.IncrWithTTL(ctx, policy.key(rule.dimension, subject), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
					return
				}
				if count > rule.limit {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"policy":    policy.name,
							"dimension": rule.dimension,
							"subject":   subject,
							"attempts":  count,
							"limit":     rule.limit,
						}), "auth.rate_limit.blocked")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(policy.window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func ipSubject(r *http.Request, _ []byte) string {
	return clientIP(r)
}

// usernameSubject hashes the normalized username so raw identities never reach Redis.
func usernameSubject(_ *http.Request, body []byte) string {
	var payload struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	username := strings.ToLower(strings.TrimSpace(payload.Username))
	if username == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:])
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
