package middleware

import (
	"net/http"
	"slices"

	"github.com/angelmondragon/accounts-backend/api/responses"
	"github.com/angelmondragon/accounts-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
)

// RequireRole lets a request through only when the token role is one of allowed.
func RequireRole(logg *logger.Logger, allowed ...enums.ActorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.ActorRole(RoleFromContext(r.Context()))
			if !slices.Contains(allowed, role) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Newf(pkgerrors.CodeForbidden, "role %q may not access this route", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
