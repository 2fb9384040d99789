package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/vapevault-backend/api/middleware"
	"github.com/angelmondragon/vapevault-backend/api/responses"
	"github.com/angelmondragon/vapevault-backend/api/validators"
	"github.com/angelmondragon/vapevault-backend/internal/auth"
	pkgAuth "github.com/angelmondragon/vapevault-backend/pkg/auth"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

// accessTokenHeader mirrors the issued access token for clients that cannot
// read response bodies on redirects.
const accessTokenHeader = "X-VapeVault-Token"

// tokenEndpoint decodes a request of type Req, runs issue and answers with the
// resulting token pair.
func tokenEndpoint[Req any, Resp any](
	logg *logger.Logger,
	status int,
	issue func(context.Context, Req) (*Resp, error),
	accessToken func(*Resp) string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req Req
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := issue(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(accessTokenHeader, accessToken(out))
		responses.WriteSuccessStatus(w, status, out)
	}
}

func loginToken(resp *auth.LoginResponse) string { return resp.AccessToken }

func pairToken(pair *auth.TokenPair) string { return pair.AccessToken }

func AuthSignup(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return tokenEndpoint(logg, http.StatusCreated, svc.Signup, loginToken)
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return tokenEndpoint(logg, http.StatusOK, svc.Login, loginToken)
}

// AuthRefresh trades a refresh token for a new pair. The old refresh token is
// spent.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return tokenEndpoint(logg, http.StatusOK, svc.Refresh, pairToken)
}

// AuthLogout drops the refresh session behind the bearer token. Expired tokens
// are accepted so a stale client can still sign out.
func AuthLogout(svc auth.Service, tokens *pkgAuth.Issuer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		raw, ok := middleware.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		claims, err := tokens.Inspect(raw)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
			return
		}
		if err := svc.Logout(ctx, claims.SessionID()); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}
