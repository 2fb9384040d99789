package users

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	"github.com/angelmondragon/vapevault-backend/pkg/pagination"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail expects an already normalized email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

// first returns gorm.ErrRecordNotFound when nothing matches.
func (r *Repository) first(ctx context.Context, query string, arg any) (*models.User, error) {
	user := new(models.User)
	if err := r.db.WithContext(ctx).Where(query, arg).Take(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateLastLogin does not touch updated_at.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.User{ID: id}).UpdateColumn("last_login_at", at).Error
}

// UpdateProfile applies the non-nil profile fields and returns the fresh row.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, update ProfileUpdate) (*models.User, error) {
	return r.update(ctx, id, update.columns())
}

// UpdateAdminFields applies an admin edit (name, role).
func (r *Repository) UpdateAdminFields(ctx context.Context, id uuid.UUID, update AdminUpdate) (*models.User, error) {
	return r.update(ctx, id, update.columns())
}

// update writes cols and reloads the row. An empty update only reloads.
func (r *Repository) update(ctx context.Context, id uuid.UUID, cols map[string]any) (*models.User, error) {
	if len(cols) == 0 {
		return r.FindByID(ctx, id)
	}
	cols["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	switch {
	case res.Error != nil:
		return nil, res.Error
	case res.RowsAffected == 0:
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// List pages through users newest first. next is empty on the last page.
func (r *Repository) List(ctx context.Context, params pagination.Params) (rows []models.User, next string, err error) {
	page, err := pagination.Keyset(params, "created_at")
	if err != nil {
		return nil, "", err
	}
	if err = r.db.WithContext(ctx).Scopes(page).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	rows, next = pagination.Trim(rows, params, userCursor)
	return rows, next, nil
}

func userCursor(u models.User) pagination.Cursor {
	return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
}

func (r *Repository) Count(ctx context.Context) (n int64, err error) {
	err = r.db.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}
