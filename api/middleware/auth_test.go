package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vapevault-backend/pkg/auth"
	"github.com/angelmondragon/vapevault-backend/pkg/auth/session"
	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

func mintTestToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, role enums.UserRole) (string, string) {
	t.Helper()
	accessID := session.NewAccessID()
	token, err := auth.NewIssuer(cfg).Mint(userID, role, accessID)
	require.NoError(t, err)
	return token, accessID
}

func serveWithAuth(verifier session.AccessSessionChecker, authorization string, next http.HandlerFunc) *httptest.ResponseRecorder {
	if next == nil {
		next = func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	resp := httptest.NewRecorder()
	Auth(testJWT, verifier, nil)(next).ServeHTTP(resp, req)
	return resp
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	valid, _ := mintTestToken(t, testJWT, uuid.New(), enums.UserRoleUser)
	foreign, _ := mintTestToken(t, config.JWTConfig{Secret: "other", Issuer: "issuer", ExpirationMinutes: 60}, uuid.New(), enums.UserRoleUser)

	for name, header := range map[string]string{
		"missing":        "",
		"wrong scheme":   "Basic " + valid,
		"empty bearer":   "Bearer   ",
		"garbage":        "Bearer invalid",
		"foreign secret": "Bearer " + foreign,
	} {
		t.Run(name, func(t *testing.T) {
			resp := serveWithAuth(stubSessionVerifier{ok: true}, header, nil)
			assert.Equal(t, http.StatusUnauthorized, resp.Code)
		})
	}
}

func TestAuthAttachesPrincipal(t *testing.T) {
	userID := uuid.New()
	token, accessID := mintTestToken(t, testJWT, userID, enums.UserRoleUser)

	var got principal
	resp := serveWithAuth(stubSessionVerifier{ok: true}, "bearer "+token, func(w http.ResponseWriter, r *http.Request) {
		got = principal{
			userID:   UserIDFromContext(r.Context()),
			role:     RoleFromContext(r.Context()),
			accessID: AccessIDFromContext(r.Context()),
		}
		w.WriteHeader(http.StatusOK)
	})

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, principal{userID: userID.String(), role: string(enums.UserRoleUser), accessID: accessID}, got)
}

func TestAuthChecksSession(t *testing.T) {
	token, _ := mintTestToken(t, testJWT, uuid.New(), enums.UserRoleUser)

	revoked := serveWithAuth(stubSessionVerifier{ok: false}, "Bearer "+token, nil)
	assert.Equal(t, http.StatusUnauthorized, revoked.Code)
	assert.Contains(t, revoked.Body.String(), "signed out")

	down := serveWithAuth(stubSessionVerifier{err: errors.New("dial tcp")}, "Bearer "+token, nil)
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)

	unchecked := serveWithAuth(nil, "Bearer "+token, nil)
	assert.Equal(t, http.StatusOK, unchecked.Code)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(enums.UserRoleAdmin, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	call := func(ctx context.Context) int {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/dashboard", nil).WithContext(ctx))
		return resp.Code
	}

	anonymous := context.Background()
	shopper := WithRole(WithUserID(anonymous, uuid.NewString()), string(enums.UserRoleUser))
	admin := WithRole(WithUserID(anonymous, uuid.NewString()), string(enums.UserRoleAdmin))

	assert.Equal(t, http.StatusUnauthorized, call(anonymous))
	assert.Equal(t, http.StatusForbidden, call(shopper))
	assert.Equal(t, http.StatusOK, call(admin))
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":    {"abc", true},
		"  bearer  abc": {"abc", true},
		"Token abc":     {"", false},
		"Bearer":        {"", false},
		"":              {"", false},
	}
	for header, want := range cases {
		token, ok := BearerToken(header)
		assert.Equal(t, want.ok, ok, header)
		assert.Equal(t, want.token, token, header)
	}
}
