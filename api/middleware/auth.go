package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/angelmondragon/accounts-backend/api/responses"
	pkgAuth "github.com/angelmondragon/accounts-backend/pkg/auth"
	"github.com/angelmondragon/accounts-backend/pkg/auth/session"
	"github.com/angelmondragon/accounts-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
	"github.com/google/uuid"
)

// AccountChecker reports whether a user may still act. Missing users are
// reported inactive.
type AccountChecker interface {
	IsActive(ctx context.Context, userID uuid.UUID) (bool, error)
}

// Auth admits requests carrying a valid access token whose session is still
// live and whose account is still active, and puts the caller's id and role
// on the context. A nil accounts checker skips the account lookup.
func Auth(cfg config.JWTConfig, sessions session.AccessSessionChecker, accounts AccountChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			claims, err := authenticate(ctx, cfg, sessions, r)
			if err == nil {
				err = checkAccount(ctx, accounts, claims.UserID)
			}
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			userID, role := claims.UserID.String(), string(claims.Role)
			ctx = withActor(ctx, actor{userID: userID, role: role})
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{"user_id": userID, "actor_role": role})
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(ctx context.Context, cfg config.JWTConfig, sessions session.AccessSessionChecker, r *http.Request) (*pkgAuth.AccessTokenClaims, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, err
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if sessions == nil {
		return claims, nil
	}
	live, err := sessions.HasSession(ctx, claims.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
	}
	if !live {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session revoked or expired")
	}
	return claims, nil
}

func checkAccount(ctx context.Context, accounts AccountChecker, userID uuid.UUID) error {
	if accounts == nil {
		return nil
	}
	active, err := accounts.IsActive(ctx, userID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if !active {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "account disabled")
	}
	return nil
}

// BearerToken reads the Authorization header. The "Bearer" scheme prefix is
// optional and matched case-insensitively.
func BearerToken(r *http.Request) (string, error) {
	token := strings.TrimSpace(r.Header.Get("Authorization"))
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "bearer") {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	return token, nil
}
