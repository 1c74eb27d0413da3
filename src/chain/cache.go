package chain

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const latestSnapshotTTL = 6 * time.Second

// Cached wraps a Resolver with a Redis cache. Latest snapshots are cached for
// a few seconds to spare the RPC endpoint; snapshot timestamps are immutable
// once a block is finalized, so they are kept without expiry. Cache failures
// fall through to the upstream resolver.
type Cached struct {
	inner    Resolver
	rdb      *redis.Client
	coinType uint32
}

func NewCached(inner Resolver, rdb *redis.Client, coinType uint32) *Cached {
	return &Cached{inner: inner, rdb: rdb, coinType: coinType}
}

func (c *Cached) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	key := fmt.Sprintf("snapshot:latest:%d", c.coinType)
	if cached, err := c.rdb.Get(ctx, key).Result(); err == nil && cached != "" {
		return Snapshot(cached), nil
	}
	snapshot, err := c.inner.LatestSnapshot(ctx)
	if err != nil {
		return "", err
	}
	if err := c.rdb.Set(ctx, key, string(snapshot), latestSnapshotTTL).Err(); err != nil {
		log.Printf("chain: cache latest snapshot %d: %v", c.coinType, err)
	}
	return snapshot, nil
}

func (c *Cached) SnapshotTimestamp(ctx context.Context, snapshot Snapshot) (time.Time, error) {
	key := fmt.Sprintf("snapshot:ts:%d:%s", c.coinType, snapshot)
	if cached, err := c.rdb.Get(ctx, key).Result(); err == nil && cached != "" {
		if millis, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return time.UnixMilli(millis).UTC(), nil
		}
	}
	ts, err := c.inner.SnapshotTimestamp(ctx, snapshot)
	if err != nil {
		return time.Time{}, err
	}
	if err := c.rdb.Set(ctx, key, strconv.FormatInt(ts.UnixMilli(), 10), 0).Err(); err != nil {
		log.Printf("chain: cache snapshot timestamp %d/%s: %v", c.coinType, snapshot, err)
	}
	return ts, nil
}
