package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/internal/users"
	pkgAuth "github.com/angelmondragon/vapevault-backend/pkg/auth"
	"github.com/angelmondragon/vapevault-backend/pkg/auth/session"
	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/db"
	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/security"
)

// Service signs shoppers and admins in and out.
type Service interface {
	Signup(ctx context.Context, req SignupRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Logout(ctx context.Context, accessID string) error
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
}

type userRepository interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string, userID uuid.UUID) (string, error)
	Rotate(ctx context.Context, oldAccessID string, userID uuid.UUID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type ServiceParams struct {
	UserRepo       userRepository
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

var (
	errBadCredentials = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	errBadAccessToken = pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
)

type service struct {
	users    userRepository
	sessions sessionManager
	tokens   *pkgAuth.Issuer
	hashing  config.PasswordConfig
	clock    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.UserRepo == nil:
		return nil, errors.New("user repository is required")
	case params.SessionManager == nil:
		return nil, errors.New("session manager is required")
	}
	clock := func() time.Time { return time.Now().UTC() }
	return &service{
		users:    params.UserRepo,
		sessions: params.SessionManager,
		tokens:   pkgAuth.NewIssuer(params.JWTConfig).WithClock(clock),
		hashing:  params.PasswordConfig,
		clock:    clock,
	}, nil
}

func (s *service) Signup(ctx context.Context, req SignupRequest) (*LoginResponse, error) {
	dto, err := s.newAccount(req)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Create(ctx, dto)
	switch {
	case db.IsUniqueViolation(err, "users_email_key"):
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "An account with this email already exists")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return s.startSession(ctx, user)
}

// newAccount applies the signup form rules in the order the storefront
// reports them and hashes the password.
func (s *service) newAccount(req SignupRequest) (users.CreateUserDTO, error) {
	name := strings.TrimSpace(req.FullName)
	if name == "" {
		return users.CreateUserDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "Please enter your full name")
	}
	email, ok := normalizeEmail(req.Email)
	if !ok {
		return users.CreateUserDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "Please enter a valid email address")
	}
	if err := security.CheckPassword(req.Password, &req.ConfirmPassword); err != nil {
		return users.CreateUserDTO{}, err
	}
	hash, err := security.HashPassword(req.Password, s.hashing)
	if err != nil {
		return users.CreateUserDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return users.CreateUserDTO{
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
		PhoneNumber:  optionalTrimmed(req.PhoneNumber),
		Role:         enums.UserRoleUser,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email, ok := normalizeEmail(req.Email)
	if !ok {
		return nil, errBadCredentials
	}
	user, err := s.users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errBadCredentials
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	match, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !match || !user.IsActive {
		return nil, errBadCredentials
	}
	return s.startSession(ctx, user)
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return nil
}

// Refresh accepts an expired access token as long as its signature holds and
// the paired refresh token matches the stored session.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := s.tokens.Inspect(req.AccessToken)
	if err != nil || claims.SessionID() == "" {
		return nil, errBadAccessToken
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, errBadAccessToken
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	case !user.IsActive:
		return nil, errBadCredentials
	}

	accessID, refresh, err := s.sessions.Rotate(ctx, claims.SessionID(), user.ID, req.RefreshToken)
	switch {
	case errors.Is(err, session.ErrInvalidRefreshToken):
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
	case err != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	access, err := s.tokens.Mint(user.ID, user.Role, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return s.pair(access, refresh), nil
}

func (s *service) startSession(ctx context.Context, user *models.User) (*LoginResponse, error) {
	now := s.clock()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	accessID := session.NewAccessID()
	access, err := s.tokens.Mint(user.ID, user.Role, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := s.sessions.Generate(ctx, accessID, user.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &LoginResponse{TokenPair: *s.pair(access, refresh), User: users.FromModel(user)}, nil
}

func (s *service) pair(access, refresh string) *TokenPair {
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.TTL().Seconds()),
	}
}

// normalizeEmail lowercases a bare address and rejects display-name forms.
func normalizeEmail(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}
	parsed, err := mail.ParseAddress(email)
	if err != nil || parsed.Address != email || !strings.Contains(email[strings.LastIndexByte(email, '@'):], ".") {
		return "", false
	}
	return email, true
}

func optionalTrimmed(value *string) *string {
	if value == nil {
		return nil
	}
	if v := strings.TrimSpace(*value); v != "" {
		return &v
	}
	return nil
}

