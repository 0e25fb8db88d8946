package notify

import (
	"context"
	"time"

	"canteen-be/internal/logger"

	"go.uber.org/zap"
)

// Publisher is the only surface order-mutating code depends on.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Transport is one delivery channel. Every transport is best-effort
// and individually lossy; the bus never relies on a single one.
type Transport interface {
	Name() string
	Publish(ctx context.Context, event Event) error
}

type Bus struct {
	transports []Transport
}

func NewBus(transports ...Transport) *Bus {
	return &Bus{transports: transports}
}

// Publish fans the event out to every transport. A failing transport
// is logged and skipped so it cannot block the rest.
func (b *Bus) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	log := logger.FromCtx(ctx).With(
		zap.String("event_type", event.Type),
		zap.String("order_id", event.OrderID),
	)

	for _, t := range b.transports {
		if err := t.Publish(ctx, event); err != nil {
			log.Warn("transport publish failed",
				zap.String("transport", t.Name()),
				zap.Error(err),
			)
			continue
		}
	}
}
