package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
)

// UserDTO is the transport shape that omits sensitive credentials.
type UserDTO struct {
	ID          uuid.UUID      `json:"id"`
	FullName    string         `json:"full_name"`
	Email       string         `json:"email"`
	PhoneNumber *string        `json:"phone_number,omitempty"`
	Address     *string        `json:"address,omitempty"`
	Role        enums.UserRole `json:"role"`
	IsActive    bool           `json:"is_active"`
	LastLoginAt *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	FullName     string
	Email        string
	PasswordHash string
	PhoneNumber  *string
	Role         enums.UserRole
}

// ProfileUpdate carries the self-service account fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	FullName     *string
	PhoneNumber  *string
	Address      *string
	PasswordHash *string
}

// AdminUpdate carries the fields an admin may change on another account.
type AdminUpdate struct {
	FullName *string
	Role     *enums.UserRole
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Address:     u.Address,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func FromModels(list []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}
	return &models.User{
		FullName:     c.FullName,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		PhoneNumber:  c.PhoneNumber,
		Role:         role,
		IsActive:     true,
	}
}

func (p ProfileUpdate) columns() map[string]any {
	cols := map[string]any{}
	if p.FullName != nil {
		cols["full_name"] = *p.FullName
	}
	if p.PhoneNumber != nil {
		cols["phone_number"] = *p.PhoneNumber
	}
	if p.Address != nil {
		cols["address"] = *p.Address
	}
	if p.PasswordHash != nil {
		cols["password_hash"] = *p.PasswordHash
	}
	return cols
}

func (a AdminUpdate) columns() map[string]any {
	cols := map[string]any{}
	if a.FullName != nil {
		cols["full_name"] = *a.FullName
	}
	if a.Role != nil {
		cols["role"] = string(*a.Role)
	}
	return cols
}
