package notify

import (
	"context"

	"canteen-be/internal/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// BroadcastChannel carries order events between server instances on
// the same deployment, mirroring what the browser app did with a
// BroadcastChannel between tabs.
const BroadcastChannel = "order_updates"

type RedisTransport struct {
	client *redis.Client
}

func NewRedisTransport(client *redis.Client) *RedisTransport {
	return &RedisTransport{client: client}
}

func (t *RedisTransport) Name() string { return "redis" }

func (t *RedisTransport) Publish(ctx context.Context, event Event) error {
	payload, err := event.Encode()
	if err != nil {
		return err
	}
	return t.client.Publish(ctx, BroadcastChannel, payload).Err()
}

// RunBroadcastWorker subscribes to the broadcast channel and forwards
// events into out until ctx is cancelled.
func RunBroadcastWorker(ctx context.Context, client *redis.Client, out chan<- Event) {
	log := logger.Named("broadcast")

	sub := client.Subscribe(ctx, BroadcastChannel)
	defer sub.Close()

	ch := sub.Channel()
	log.Info("listening for order broadcasts")

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			event, err := DecodeEvent([]byte(msg.Payload))
			if err != nil {
				log.Warn("dropping malformed broadcast payload", zap.Error(err))
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}
