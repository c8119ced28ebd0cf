package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Deduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDeduper(rdb *redis.Client, ttl time.Duration) *Deduper {
	return &Deduper{rdb: rdb, ttl: ttl}
}

// AcquireOnce tries to acquire a dedup lock for a given handler + message id.
// Returns true if this is the FIRST time processing.
func (d *Deduper) AcquireOnce(ctx context.Context, handler, messageID string) (bool, error) {
	key := fmt.Sprintf("dedup:%s:%s", handler, messageID)
	return d.rdb.SetNX(ctx, key, 1, d.ttl).Result()
}

// Release drops the dedup lock so a failed delivery can be retried.
func (d *Deduper) Release(ctx context.Context, handler, messageID string) error {
	key := fmt.Sprintf("dedup:%s:%s", handler, messageID)
	return d.rdb.Del(ctx, key).Err()
}
