package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/angelmondragon/vapevault-backend/internal/users"
	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

// applySequential runs apply over ids in order and stops at the first failure.
// The returned error keeps the failing step's code and reports how many rows
// were applied before it.
func applySequential(ids []uuid.UUID, apply func(i int) error) (*BatchResult, error) {
	for i, id := range ids {
		if err := apply(i); err != nil {
			return nil, batchErr(err, i, id)
		}
	}
	return &BatchResult{Applied: len(ids)}, nil
}

func batchErr(err error, applied int, failedID uuid.UUID) error {
	details := map[string]any{}
	code := pkgerrors.CodeInternal
	message := err.Error()
	if typed := pkgerrors.As(err); typed != nil {
		code = typed.Code()
		message = typed.Message()
		if existing, ok := typed.Details().(map[string]any); ok {
			for k, v := range existing {
				details[k] = v
			}
		}
	}
	details["applied"] = applied
	details["failed_id"] = failedID
	return pkgerrors.Wrap(code, err, message).WithDetails(details)
}

func (s *service) ApplyOrderStatuses(ctx context.Context, changes []OrderStatusChange) (result *BatchResult, err error) {
	started := time.Now()
	defer func() { s.track(JobOrderStatuses, started, err) }()

	ids := make([]uuid.UUID, len(changes))
	for i, change := range changes {
		ids[i] = change.OrderID
	}
	return applySequential(ids, func(i int) error {
		_, err := s.orders.UpdateStatus(ctx, changes[i].OrderID, changes[i].Status)
		return err
	})
}

func (s *service) ApplyUserEdits(ctx context.Context, edits []UserEdit) (result *BatchResult, err error) {
	started := time.Now()
	defer func() { s.track(JobUserEdits, started, err) }()

	ids := make([]uuid.UUID, len(edits))
	for i, edit := range edits {
		ids[i] = edit.UserID
	}
	return applySequential(ids, func(i int) error {
		update, err := normalizeUserEdit(edits[i])
		if err != nil {
			return err
		}
		if _, err := s.users.UpdateAdminFields(ctx, edits[i].UserID, update); err != nil {
			return notFoundOr(err, "user not found", "update user")
		}
		return nil
	})
}

func normalizeUserEdit(edit UserEdit) (users.AdminUpdate, error) {
	var update users.AdminUpdate
	if edit.FullName != nil {
		name := strings.TrimSpace(*edit.FullName)
		if name == "" {
			return update, pkgerrors.New(pkgerrors.CodeValidation, "full name cannot be empty")
		}
		update.FullName = &name
	}
	if edit.Role != nil {
		role, err := enums.ParseUserRole(*edit.Role)
		if err != nil {
			return update, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Invalid role %q", *edit.Role))
		}
		update.Role = &role
	}
	return update, nil
}

func (s *service) ApplyProductEdits(ctx context.Context, edits []ProductEdit) (result *BatchResult, err error) {
	started := time.Now()
	defer func() { s.track(JobProductEdits, started, err) }()

	ids := make([]uuid.UUID, len(edits))
	for i, edit := range edits {
		ids[i] = edit.ProductID
	}
	result, err = applySequential(ids, func(i int) error {
		cols, err := productColumns(edits[i])
		if err != nil {
			return err
		}
		if _, err := s.products.Update(ctx, edits[i].ProductID, cols); err != nil {
			return notFoundOr(err, "Product not found", "update product")
		}
		return nil
	})
	s.invalidateCatalog(ctx)
	return result, err
}

func productColumns(edit ProductEdit) (map[string]any, error) {
	cols := map[string]any{}
	if edit.Name != nil {
		name := strings.TrimSpace(*edit.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		cols["name"] = name
	}
	if edit.Brand != nil {
		cols["brand"] = strings.TrimSpace(*edit.Brand)
	}
	if edit.Description != nil {
		cols["description"] = *edit.Description
	}
	if edit.Price != nil {
		if edit.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		cols["price"] = *edit.Price
	}
	if edit.ImageURL != nil {
		cols["image_url"] = *edit.ImageURL
	}
	if edit.CategoryID != nil {
		cols["category_id"] = *edit.CategoryID
	}
	if edit.Features != nil {
		cols["features"] = pq.StringArray(edit.Features)
	}
	if edit.Tags != nil {
		cols["tags"] = pq.StringArray(edit.Tags)
	}
	if edit.StockQuantity != nil {
		if *edit.StockQuantity < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock quantity cannot be negative")
		}
		cols["stock_quantity"] = *edit.StockQuantity
	}
	if len(cols) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	return cols, nil
}
