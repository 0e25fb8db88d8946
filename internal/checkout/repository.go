package checkout

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"canteen-be/internal/logger"
	"canteen-be/internal/order"

	"go.uber.org/zap"
)

// Draft is the server-priced cart captured when the checkout session
// is created. Complete promotes it to an order once payment settles,
// so the cart never round-trips through the payment provider.
type Draft struct {
	SessionID     string
	UserID        string
	CustomerEmail string
	Items         order.Items
	Amount        int64
	PickupTime    string
	Notes         string
	CreatedAt     time.Time
}

type DraftRepository interface {
	Save(ctx context.Context, d *Draft) error
	GetBySessionID(ctx context.Context, sessionID string) (*Draft, error)
	Delete(ctx context.Context, sessionID string) error
}

type draftRepository struct {
	db *sql.DB
}

func NewDraftRepository(db *sql.DB) DraftRepository {
	return &draftRepository{db: db}
}

const draftColumns = `session_id, user_id, customer_email, items, amount, pickup_time, notes, created_at`

func (r *draftRepository) Save(ctx context.Context, d *Draft) error {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "repository"),
		zap.String("method", "SaveDraft"),
		zap.String("session_id", d.SessionID),
	)

	query := `
		INSERT INTO checkout_drafts (session_id, user_id, customer_email, items, amount, pickup_time, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (session_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query,
		d.SessionID,
		d.UserID,
		d.CustomerEmail,
		d.Items,
		d.Amount,
		d.PickupTime,
		d.Notes,
	); err != nil {
		log.Error("failed to save checkout draft", zap.Error(err))
		return err
	}
	return nil
}

func (r *draftRepository) GetBySessionID(ctx context.Context, sessionID string) (*Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM checkout_drafts WHERE session_id = $1`

	var d Draft
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&d.SessionID,
		&d.UserID,
		&d.CustomerEmail,
		&d.Items,
		&d.Amount,
		&d.PickupTime,
		&d.Notes,
		&d.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *draftRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM checkout_drafts WHERE session_id = $1`, sessionID)
	return err
}
