package refdata

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// BumpChannel carries reference data change notifications between processes.
const BumpChannel = "refdata.bump"

// Bus publishes and consumes bump notifications over Redis pub/sub.
type Bus struct {
	client  *redis.Client
	channel string
	logger  *slog.Logger
}

// NewBus builds a bus on the default channel.
func NewBus(client *redis.Client, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{client: client, channel: BumpChannel, logger: logger}
}

// Publish announces a change. The payload is the publish time in unix nanoseconds.
func (b *Bus) Publish(ctx context.Context) error {
	if b == nil || b.client == nil {
		return nil
	}
	return b.client.Publish(ctx, b.channel, strconv.FormatInt(time.Now().UnixNano(), 10)).Err()
}

// Listen invalidates store on every bump until ctx ends. It returns once the
// subscription is confirmed.
func (b *Bus) Listen(ctx context.Context, store *Store) error {
	if b == nil || b.client == nil {
		return nil
	}
	pubsub := b.client.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return err
	}
	go func() {
		defer func() { _ = pubsub.Close() }()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				store.Invalidate()
				b.logger.Debug("refdata invalidated", slog.String("channel", msg.Channel), slog.String("payload", msg.Payload))
			}
		}
	}()
	return nil
}
