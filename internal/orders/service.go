package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vapevault-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

// Service exposes order history to shoppers and order management to admins.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListAll(ctx context.Context, params ListParams) (*OrderPage, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, raw string) (*OrderDTO, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}
	return newOrderDTOs(rows), nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindForUser(ctx, userID, orderID)
	if err != nil {
		return nil, lookupErr(err)
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) ListAll(ctx context.Context, params ListParams) (*OrderPage, error) {
	rows, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Coded(pkgerrors.CodeInternal, err, "list orders")
	}
	return &OrderPage{Orders: newOrderDTOs(rows), NextCursor: next}, nil
}

// UpdateStatus normalizes raw, checks it against the transition table and
// persists it. Writing the current status again is a no-op.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, raw string) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Invalid status %q", raw))
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, lookupErr(err)
	}
	if order.Status == next {
		dto := NewOrderDTO(order)
		return &dto, nil
	}
	if !order.Status.CanTransition(next) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next)).
			WithDetails(map[string]any{"order_id": orderID, "from": order.Status, "to": next})
	}

	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, lookupErr(err)
	}
	order.Status = next
	dto := NewOrderDTO(order)
	return &dto, nil
}

func lookupErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order")
}
