package order

import (
	"context"
	"fmt"

	"canteen-be/internal/logger"
	"canteen-be/internal/notify"
	"canteen-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	Accept(ctx context.Context, orderID string) (*Order, error)
	MarkDelivered(ctx context.Context, orderID string) (*Order, error)
	Cancel(ctx context.Context, orderID string) (*Order, error)
	UpdateNotes(ctx context.Context, orderID, notes string) (*Order, error)

	List(ctx context.Context, filter *Filter) ([]*Order, error)
	GetByID(ctx context.Context, orderID string) (*Order, error)
}

type service struct {
	repo Repository
	bus  notify.Publisher
}

func NewService(repo Repository, bus notify.Publisher) Service {
	return &service{repo: repo, bus: bus}
}

func (s *service) Accept(ctx context.Context, orderID string) (*Order, error) {
	return s.transition(ctx, orderID, StatusAccepted)
}

func (s *service) MarkDelivered(ctx context.Context, orderID string) (*Order, error) {
	return s.transition(ctx, orderID, StatusDelivered)
}

func (s *service) Cancel(ctx context.Context, orderID string) (*Order, error) {
	return s.transition(ctx, orderID, StatusCancelled)
}

// transition runs one edge of the state machine as a conditional
// update. A lost race surfaces as ErrConflict, never as a silent
// overwrite; the write is not retried here.
func (s *service) transition(ctx context.Context, orderID string, to Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "transition"),
		zap.String("order_id", orderID),
		zap.String("to", string(to)),
	)

	if !utils.IsAdmin(ctx) {
		return nil, ErrUnauthorized
	}

	from, ok := Transitions[to]
	if !ok {
		return nil, fmt.Errorf("no transition defined into status %q", to)
	}

	updated, err := s.repo.UpdateStatus(ctx, orderID, from, to)
	if err != nil {
		return nil, err
	}

	log.Info("order transitioned", zap.String("status", string(updated.Status)))

	s.bus.Publish(ctx, notify.Event{
		Type:      notify.EventStatusChange,
		OrderID:   updated.ID,
		Timestamp: updated.UpdatedAt,
	})

	return updated, nil
}

// UpdateNotes is last-write-wins with no conflict detection and is
// never blocked by the state machine.
func (s *service) UpdateNotes(ctx context.Context, orderID, notes string) (*Order, error) {
	if !utils.IsAdmin(ctx) {
		return nil, ErrUnauthorized
	}

	updated, err := s.repo.UpdateNotes(ctx, orderID, notes)
	if err != nil {
		return nil, err
	}

	s.bus.Publish(ctx, notify.Event{
		Type:      notify.EventOrderUpdate,
		OrderID:   updated.ID,
		Timestamp: updated.UpdatedAt,
	})

	return updated, nil
}

// List scopes non-admin callers to their own orders.
func (s *service) List(ctx context.Context, filter *Filter) ([]*Order, error) {
	if filter == nil {
		filter = &Filter{}
	}

	if !utils.IsAdmin(ctx) {
		userID, ok := utils.GetUserIDFromContext(ctx)
		if !ok {
			return nil, ErrUnauthorized
		}
		filter.UserID = &userID
	}

	return s.repo.List(ctx, filter)
}

func (s *service) GetByID(ctx context.Context, orderID string) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !utils.IsAdmin(ctx) {
		userID, _ := utils.GetUserIDFromContext(ctx)
		if o.UserID != userID {
			return nil, ErrUnauthorized
		}
	}

	return o, nil
}
