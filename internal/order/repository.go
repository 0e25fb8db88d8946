package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"canteen-be/internal/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

type Filter struct {
	Status *Status
	UserID *string
}

type Repository interface {
	Insert(ctx context.Context, o *Order) (*Order, error)
	GetByID(ctx context.Context, id string) (*Order, error)
	GetBySessionID(ctx context.Context, sessionID string) (*Order, error)
	List(ctx context.Context, filter *Filter) ([]*Order, error)

	UpdateStatus(ctx context.Context, id string, from StatusSet, to Status) (*Order, error)
	UpdateNotes(ctx context.Context, id, notes string) (*Order, error)

	// Statuses resolves ids to their live persisted status in one query,
	// used by the mirror reconciler.
	Statuses(ctx context.Context, ids []string) (map[string]Status, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const orderColumns = `id, user_id, session_id, items, amount, status, pickup_time, notes, created_at, updated_at`

func scanOrder(row interface{ Scan(...any) error }) (*Order, error) {
	var o Order
	var sessionID sql.NullString
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&sessionID,
		&o.Items,
		&o.Amount,
		&o.Status,
		&o.PickupTime,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	o.SessionID = sessionID.String
	return &o, nil
}

func (r *repository) Insert(ctx context.Context, o *Order) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "Insert"),
		zap.String("session_id", o.SessionID),
	)

	if o.ID == "" {
		o.ID = uuid.New().String()
	}

	var sessionID sql.NullString
	if o.SessionID != "" {
		sessionID = sql.NullString{String: o.SessionID, Valid: true}
	}

	query := `
		INSERT INTO orders (id, user_id, session_id, items, amount, status, pickup_time, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING ` + orderColumns

	created, err := scanOrder(r.db.QueryRowContext(ctx, query,
		o.ID,
		o.UserID,
		sessionID,
		o.Items,
		o.Amount,
		o.Status,
		o.PickupTime,
		o.Notes,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == PgUniqueViolation {
			log.Warn("duplicate session insert suppressed")
			return nil, ErrDuplicateSession
		}
		log.Error("failed to insert order", zap.Error(err))
		return nil, err
	}

	log.Info("order inserted", zap.String("order_id", created.ID))
	return created, nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) GetBySessionID(ctx context.Context, sessionID string) (*Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE session_id = $1`

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) List(ctx context.Context, filter *Filter) ([]*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "List"),
	)

	query := `SELECT ` + orderColumns + ` FROM orders WHERE 1=1`
	args := []any{}
	argIndex := 1

	if filter != nil {
		if filter.UserID != nil && *filter.UserID != "" {
			query += fmt.Sprintf(" AND user_id = $%d", argIndex)
			args = append(args, *filter.UserID)
			argIndex++
		}
		if filter.Status != nil && *filter.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argIndex)
			args = append(args, *filter.Status)
			argIndex++
		}
	}

	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query orders", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			log.Error("failed to scan order row", zap.Error(err))
			return nil, err
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// UpdateStatus is a single conditional update. The status precondition is
// evaluated inside the UPDATE itself, so there is no read-then-write window.
func (r *repository) UpdateStatus(ctx context.Context, id string, from StatusSet, to Status) (*Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "UpdateStatus"),
		zap.String("order_id", id),
		zap.String("to", string(to)),
	)

	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2
		  AND status = ANY($3)
		RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, to, id, pq.Array(from.Strings())))
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a lost race from a missing row.
		if _, probeErr := r.GetByID(ctx, id); probeErr != nil {
			return nil, probeErr
		}
		log.Warn("status precondition failed", zap.Strings("expected_from", from.Strings()))
		return nil, ErrConflict
	}
	if err != nil {
		log.Error("failed to update order status", zap.Error(err))
		return nil, err
	}

	return o, nil
}

// UpdateNotes is last-write-wins and never guarded by the state machine.
func (r *repository) UpdateNotes(ctx context.Context, id, notes string) (*Order, error) {
	query := `
		UPDATE orders
		SET notes = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + orderColumns

	o, err := scanOrder(r.db.QueryRowContext(ctx, query, notes, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *repository) Statuses(ctx context.Context, ids []string) (map[string]Status, error) {
	if len(ids) == 0 {
		return map[string]Status{}, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, status FROM orders WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Status, len(ids))
	for rows.Next() {
		var id string
		var status Status
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		out[id] = status
	}
	return out, rows.Err()
}
