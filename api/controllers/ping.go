package controllers

import (
	"net/http"

	"github.com/angelmondragon/accounts-backend/api/middleware"
	"github.com/angelmondragon/accounts-backend/api/responses"
)

type pingResponse struct {
	Scope  string `json:"scope"`
	Status string `json:"status"`
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

// Ping answers on every route group so clients can check auth wiring.
// Authenticated groups echo the caller's id and role.
func Ping(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		responses.WriteSuccess(w, pingResponse{
			Scope:  scope,
			Status: "ok",
			UserID: middleware.UserIDFromContext(ctx),
			Role:   middleware.RoleFromContext(ctx),
		})
	}
}
