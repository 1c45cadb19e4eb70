package controllers

import (
	"net/http"

	"github.com/angelmondragon/accounts-backend/api/middleware"
	"github.com/angelmondragon/accounts-backend/api/responses"
	"github.com/angelmondragon/accounts-backend/api/validators"
	"github.com/angelmondragon/accounts-backend/internal/auth"
	pkgerrors "github.com/angelmondragon/accounts-backend/pkg/errors"
	"github.com/angelmondragon/accounts-backend/pkg/logger"
)

// AccessTokenHeader repeats the issued access token for clients that read headers.
const AccessTokenHeader = "X-Access-Token"

var errAuthUnavailable = pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")

// AuthRegister creates a normal user account and signs it in.
func AuthRegister(reg auth.RegisterService, svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if reg == nil || svc == nil {
			responses.WriteError(ctx, logg, w, errAuthUnavailable)
			return
		}
		var body auth.RegisterRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := reg.Register(ctx, body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Login(ctx, auth.LoginRequest{Username: body.Username, Password: body.Password})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.Header().Set(AccessTokenHeader, result.AccessToken)
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errAuthUnavailable)
			return
		}
		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		result, err := svc.Login(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.Header().Set(AccessTokenHeader, result.AccessToken)
		responses.WriteSuccess(w, result)
	}
}

// AuthRefresh trades the (possibly expired) bearer token and its refresh
// token for a new pair. The old pair stops working.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errAuthUnavailable)
			return
		}
		token, err := middleware.BearerToken(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		var body auth.RefreshRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		pair, err := svc.Refresh(ctx, token, body.RefreshToken)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		w.Header().Set(AccessTokenHeader, pair.AccessToken)
		responses.WriteSuccess(w, pair)
	}
}

func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, errAuthUnavailable)
			return
		}
		token, err := middleware.BearerToken(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := svc.Logout(ctx, token); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
