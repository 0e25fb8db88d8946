package notify

import (
	"context"
	"database/sql"

	"canteen-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// FeedChannel is the LISTEN/NOTIFY channel scoped to the orders table.
const FeedChannel = "orders_changed"

// PostgresTransport publishes through pg_notify so every process
// listening on the store's change feed sees the event. This is the
// only channel that reaches other devices.
type PostgresTransport struct {
	db *sql.DB
}

func NewPostgresTransport(db *sql.DB) *PostgresTransport {
	return &PostgresTransport{db: db}
}

func (t *PostgresTransport) Name() string { return "postgres" }

func (t *PostgresTransport) Publish(ctx context.Context, event Event) error {
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	_, err = t.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, FeedChannel, string(payload))
	return err
}

// Feed is the subscribe side of the persistent change feed. It turns
// pq listener notifications into Events. pq handles reconnects; gaps
// during a reconnect are covered by the poller.
type Feed struct {
	listener *pq.Listener
}

func NewFeed(listener *pq.Listener) *Feed {
	return &Feed{listener: listener}
}

// Run forwards feed notifications into out until ctx is cancelled.
func (f *Feed) Run(ctx context.Context, out chan<- Event) error {
	log := logger.Named("feed")

	if err := f.listener.Listen(FeedChannel); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return f.listener.Close()
		case n := <-f.listener.Notify:
			if n == nil {
				// nil marks a reconnect; nothing to forward.
				continue
			}
			event, err := DecodeEvent([]byte(n.Extra))
			if err != nil {
				log.Warn("dropping malformed feed payload", zap.Error(err))
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return f.listener.Close()
			}
		}
	}
}
