package notify

import (
	"context"
	"time"

	"canteen-be/internal/logger"

	"go.uber.org/zap"
)

// Poller is the single reconciliation loop: a scheduled tick and
// every incoming event both run the same refresh func. The tick is
// the correctness backstop against notifications lost on any channel,
// so freshness is bounded by the poll interval even if every other
// channel drops a message.
type Poller struct {
	interval time.Duration
	events   <-chan Event
	refresh  func(ctx context.Context)
}

func NewPoller(interval time.Duration, events <-chan Event, refresh func(ctx context.Context)) *Poller {
	return &Poller{
		interval: interval,
		events:   events,
		refresh:  refresh,
	}
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	log := logger.Named("poller")
	log.Info("reconciliation loop started", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("reconciliation loop stopped")
			return
		case <-ticker.C:
			p.refresh(ctx)
		case event, ok := <-p.events:
			if !ok {
				return
			}
			log.Debug("event-triggered refresh",
				zap.String("event_type", event.Type),
				zap.String("order_id", event.OrderID),
			)
			p.refresh(ctx)
		}
	}
}
