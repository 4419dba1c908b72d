package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// envelope is what actually goes over the wire; frontends subscribe to the
// shared channel and filter on recipient_id.
type envelope struct {
	RecipientID uint  `json:"recipient_id"`
	Event       Event `json:"event"`
}

type redisChannel struct {
	rdb     *goredis.Client
	channel string
}

// NewRedisChannel connects to Redis and returns a pub/sub backed Channel.
func NewRedisChannel(addr, channel string) (Channel, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = "notifications"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisChannel{rdb: rdb, channel: channel}, nil
}

func (r *redisChannel) Send(ctx context.Context, recipientID uint, event Event) error {
	raw, err := json.Marshal(envelope{RecipientID: recipientID, Event: event})
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.channel, raw).Err()
}

func (r *redisChannel) Close() error {
	return r.rdb.Close()
}
