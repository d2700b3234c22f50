package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const DefaultPrefix = "cv-screener:ledger"

// RedisLedger keeps one key per entry, named <prefix>:<opening>:<hash>, whose
// value is the document id. Entries never expire.
type RedisLedger struct {
	client redis.UniversalClient
	prefix string
}

func NewRedis(client redis.UniversalClient, prefix string) *RedisLedger {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisLedger{client: client, prefix: prefix}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

func (l *RedisLedger) key(openingID, hash string) string {
	return l.prefix + ":" + openingID + ":" + hash
}

func (l *RedisLedger) Seen(ctx context.Context, openingID, hash string) (bool, error) {
	n, err := l.client.Exists(ctx, l.key(openingID, hash)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists: %w", err)
	}
	return n > 0, nil
}

// Record keeps the first document id recorded for a key.
func (l *RedisLedger) Record(ctx context.Context, entry Entry) error {
	if err := l.client.SetNX(ctx, l.key(entry.OpeningID, entry.ContentHash), entry.DocumentID, 0).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}

func (l *RedisLedger) Forget(ctx context.Context, openingID string) (int, error) {
	pattern := l.prefix + ":" + openingID + ":*"
	removed := 0

	var cursor uint64
	for {
		keys, next, err := l.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			n, err := l.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis del: %w", err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
