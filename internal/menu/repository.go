package menu

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"canteen-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Repository interface {
	List(ctx context.Context, filter *Filter) ([]*MenuItem, error)
	GetByID(ctx context.Context, id string) (*MenuItem, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*MenuItem, error)
	SetAvailability(ctx context.Context, id string, available bool) (*MenuItem, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const menuColumns = `id, name, description, price, category, image_url, available, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...any) error }) (*MenuItem, error) {
	var m MenuItem
	err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Description,
		&m.Price,
		&m.Category,
		&m.ImageURL,
		&m.Available,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *repository) List(ctx context.Context, filter *Filter) ([]*MenuItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "ListMenu"),
	)

	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter != nil {
		if filter.Category != "" {
			query += fmt.Sprintf(" AND category = $%d", argIndex)
			args = append(args, filter.Category)
			argIndex++
		}
		if filter.OnlyAvailable {
			query += " AND available = TRUE"
		}
	}

	query += " ORDER BY category, name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query menu items", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []*MenuItem
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			log.Error("failed to scan menu item row", zap.Error(err))
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

func (r *repository) GetByID(ctx context.Context, id string) (*MenuItem, error) {
	query := `SELECT ` + menuColumns + ` FROM menu_items WHERE id = $1`

	m, err := scanMenuItem(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *repository) GetByIDs(ctx context.Context, ids []string) (map[string]*MenuItem, error) {
	if len(ids) == 0 {
		return map[string]*MenuItem{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+menuColumns+` FROM menu_items WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*MenuItem, len(ids))
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		out[m.ID] = m
	}
	return out, rows.Err()
}

func (r *repository) SetAvailability(ctx context.Context, id string, available bool) (*MenuItem, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "SetAvailability"),
		zap.String("item_id", id),
	)

	query := `
		UPDATE menu_items
		SET available = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + menuColumns

	m, err := scanMenuItem(r.db.QueryRowContext(ctx, query, available, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		log.Error("failed to update availability", zap.Error(err))
		return nil, err
	}

	log.Info("menu item availability updated", zap.Bool("available", available))
	return m, nil
}
