package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
)

// ErrNotConfigured is returned when the JWT secret, issuer or TTL is missing.
var ErrNotConfigured = errors.New("jwt issuer not configured")

// Claims is the access token body. The registered jti doubles as the id of
// the refresh session stored in Redis.
type Claims struct {
	UserID uuid.UUID      `json:"user_id"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == enums.UserRoleAdmin
}

// SessionID is the jti.
func (c *Claims) SessionID() string {
	return c.ID
}

// Issuer mints and verifies HS256 access tokens.
type Issuer struct {
	key  []byte
	name string
	ttl  time.Duration
	now  func() time.Time
}

func NewIssuer(cfg config.JWTConfig) *Issuer {
	return &Issuer{
		key:  []byte(cfg.Secret),
		name: cfg.Issuer,
		ttl:  time.Duration(cfg.ExpirationMinutes) * time.Minute,
		now:  time.Now,
	}
}

// WithClock returns a copy that stamps and validates tokens against now.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	cp := *i
	cp.now = now
	return &cp
}

func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

func (i *Issuer) ready() error {
	if len(i.key) == 0 || i.name == "" || i.ttl <= 0 {
		return ErrNotConfigured
	}
	return nil
}

// Mint signs a token for userID. An empty sessionID gets a random one.
func (i *Issuer) Mint(userID uuid.UUID, role enums.UserRole, sessionID string) (string, error) {
	if err := i.ready(); err != nil {
		return "", err
	}
	if userID == uuid.Nil {
		return "", errors.New("mint token: user id is required")
	}
	if !role.IsValid() {
		return "", fmt.Errorf("mint token: invalid role %q", role)
	}
	if sessionID = strings.TrimSpace(sessionID); sessionID == "" {
		sessionID = uuid.NewString()
	}

	issued := i.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    i.name,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, issuer and expiry.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	return i.parse(raw, jwt.WithExpirationRequired(), jwt.WithTimeFunc(i.now))
}

// Inspect checks signature and issuer but accepts an expired token so
// refresh can recover the session id.
func (i *Issuer) Inspect(raw string) (*Claims, error) {
	return i.parse(raw, jwt.WithoutClaimsValidation())
}

func (i *Issuer) parse(raw string, opts ...jwt.ParserOption) (*Claims, error) {
	if err := i.ready(); err != nil {
		return nil, err
	}
	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(i.name))

	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.key, nil
	}, opts...); err != nil {
		return nil, err
	}
	if claims.Issuer != i.name {
		return nil, fmt.Errorf("unexpected token issuer %q", claims.Issuer)
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}
