package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/internal/users"
	"github.com/angelmondragon/vapevault-backend/pkg/config"
	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/security"
)

// UpdateRequest is the account settings form. Omitted fields are unchanged.
type UpdateRequest struct {
	FullName        *string `json:"full_name,omitempty"`
	PhoneNumber     *string `json:"phone_number,omitempty"`
	Address         *string `json:"address,omitempty"`
	Password        *string `json:"password,omitempty"`
	ConfirmPassword *string `json:"confirm_password,omitempty"`
}

type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error)
	Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*users.UserDTO, error)
}

type userRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update users.ProfileUpdate) (*models.User, error)
}

type addressVerifier interface {
	Verify(ctx context.Context, raw string) (string, error)
}

type service struct {
	users       userRepository
	addresses   addressVerifier
	passwordCfg config.PasswordConfig
}

func NewService(repo userRepository, addresses addressVerifier, passwordCfg config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if addresses == nil {
		return nil, fmt.Errorf("address verifier is required")
	}
	return &service{users: repo, addresses: addresses, passwordCfg: passwordCfg}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return users.FromModel(user), nil
}

func (s *service) Update(ctx context.Context, userID uuid.UUID, req UpdateRequest) (*users.UserDTO, error) {
	var update users.ProfileUpdate

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "Please enter your full name")
		}
		update.FullName = &name
	}
	if req.PhoneNumber != nil {
		phone := strings.TrimSpace(*req.PhoneNumber)
		update.PhoneNumber = &phone
	}
	if req.Address != nil {
		addr := strings.TrimSpace(*req.Address)
		if addr != "" {
			verified, err := s.addresses.Verify(ctx, addr)
			if err != nil {
				return nil, err
			}
			addr = verified
		}
		update.Address = &addr
	}
	if req.Password != nil && *req.Password != "" {
		if err := security.CheckPassword(*req.Password, req.ConfirmPassword); err != nil {
			return nil, err
		}
		hash, err := security.HashPassword(*req.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		update.PasswordHash = &hash
	}

	user, err := s.users.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, mapLookupErr(err)
	}
	return users.FromModel(user), nil
}

func mapLookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
}
