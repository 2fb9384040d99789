package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/vapevault-backend/api/responses"
	pkgauth "github.com/angelmondragon/vapevault-backend/pkg/auth"
	"github.com/angelmondragon/vapevault-backend/pkg/auth/session"
	"github.com/angelmondragon/vapevault-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
)

// Auth requires a bearer access token whose session is still live in Redis.
// A nil verifier skips the revocation check.
func Auth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	tokens := pkgauth.NewIssuer(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := authenticate(r, tokens, verifier)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			ctx := withPrincipal(r.Context(), caller)
			if logg != nil {
				ctx = logg.WithActorRole(logg.WithUserID(ctx, caller.userID), caller.role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func authenticate(r *http.Request, tokens *pkgauth.Issuer, verifier session.AccessSessionChecker) (principal, error) {
	token, ok := BearerToken(r.Header.Get("Authorization"))
	if !ok {
		return principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	claims, err := tokens.Verify(token)
	if err != nil {
		return principal{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	if claims.SessionID() == "" {
		return principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id")
	}
	if verifier != nil {
		live, err := verifier.HasSession(r.Context(), claims.SessionID())
		if err != nil {
			return principal{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session")
		}
		if !live {
			return principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired or signed out")
		}
	}
	return principal{
		userID:   claims.UserID.String(),
		role:     string(claims.Role),
		accessID: claims.SessionID(),
	}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
