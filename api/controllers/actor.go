package controllers

import (
	"net/http"

	"github.com/angelmondragon/accounts-backend/api/middleware"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/google/uuid"
)

// actorID returns the authenticated user id placed on the request by the auth middleware.
func actorID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}
