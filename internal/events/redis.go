package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher appends events to a Redis stream, capped at roughly MaxLen
// entries.
type RedisPublisher struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisPublisher(rdb *redis.Client, stream string, maxLen int64) *RedisPublisher {
	if stream == "" {
		stream = "nnsurvey:events"
	}
	if maxLen <= 0 {
		maxLen = 10000
	}
	return &RedisPublisher{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (p *RedisPublisher) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return p.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]any{
			"type":    string(e.Type),
			"id":      e.ID,
			"payload": payload,
		},
	}).Err()
}
