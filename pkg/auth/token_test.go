package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
)

func testIssuer(minutes int) *Issuer {
	return NewIssuer(config.JWTConfig{Secret: "secret", Issuer: "vapevault", ExpirationMinutes: minutes})
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestMintThenVerify(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	issuer := testIssuer(30).WithClock(fixedClock(now))
	userID := uuid.New()

	token, err := issuer.Mint(userID, enums.UserRoleAdmin, "session-1")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.True(t, claims.IsAdmin())
	assert.Equal(t, "session-1", claims.SessionID())
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "vapevault", claims.Issuer)
	assert.Equal(t, now.Add(30*time.Minute), claims.ExpiresAt.UTC())
	assert.Equal(t, 30*time.Minute, issuer.TTL())
}

func TestMintGeneratesSessionID(t *testing.T) {
	issuer := testIssuer(5)
	token, err := issuer.Mint(uuid.New(), enums.UserRoleUser, "  ")
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	_, err = uuid.Parse(claims.SessionID())
	assert.NoError(t, err)
	assert.False(t, claims.IsAdmin())
}

func TestVerifyRejectsTampering(t *testing.T) {
	issuer := testIssuer(10)
	token, err := issuer.Mint(uuid.New(), enums.UserRoleUser, "")
	require.NoError(t, err)

	_, err = issuer.Verify(token + "x")
	assert.Error(t, err)

	other := NewIssuer(config.JWTConfig{Secret: "secret", Issuer: "someone-else", ExpirationMinutes: 10})
	_, err = other.Verify(token)
	assert.Error(t, err)
	_, err = other.Inspect(token)
	assert.Error(t, err)
}

func TestExpiredTokenOnlyInspectable(t *testing.T) {
	issuer := testIssuer(15)
	stale := issuer.WithClock(fixedClock(time.Now().Add(-time.Hour)))
	token, err := stale.Mint(uuid.New(), enums.UserRoleUser, "expired-session")
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	claims, err := issuer.Inspect(token)
	require.NoError(t, err)
	assert.Equal(t, "expired-session", claims.SessionID())
}

func TestRejectsNoneAlgorithm(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		UserID:           uuid.New(),
		Role:             enums.UserRoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "vapevault", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = testIssuer(10).Verify(token)
	assert.Error(t, err)
}

func TestMintRejectsBadInput(t *testing.T) {
	issuer := testIssuer(5)
	_, err := issuer.Mint(uuid.New(), enums.UserRole("owner"), "")
	assert.Error(t, err)
	_, err = issuer.Mint(uuid.Nil, enums.UserRoleUser, "")
	assert.Error(t, err)

	_, err = NewIssuer(config.JWTConfig{Issuer: "vapevault", ExpirationMinutes: 5}).Mint(uuid.New(), enums.UserRoleUser, "")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
