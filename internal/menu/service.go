package menu

import (
	"context"
	"fmt"

	"canteen-be/internal/logger"
	"canteen-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	List(ctx context.Context, filter *Filter) ([]*MenuItem, error)

	// GetForOrder resolves item ids to their catalog rows for server-side
	// pricing. Every id must exist and be available.
	GetForOrder(ctx context.Context, ids []string) (map[string]*MenuItem, error)

	SetAvailability(ctx context.Context, id string, available bool) (*MenuItem, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, filter *Filter) ([]*MenuItem, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) GetForOrder(ctx context.Context, ids []string) (map[string]*MenuItem, error) {
	items, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		item, ok := items[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		if !item.Available {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
		}
	}
	return items, nil
}

func (s *service) SetAvailability(ctx context.Context, id string, available bool) (*MenuItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "SetAvailability"),
	)

	if !utils.IsAdmin(ctx) {
		log.Warn("non-admin attempted availability toggle", zap.String("item_id", id))
		return nil, ErrUnauthorized
	}

	return s.repo.SetAvailability(ctx, id, available)
}
