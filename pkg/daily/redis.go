package daily

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces daily keys in Redis.
const KeyPrefix = "netnotes:daily:"

// DefaultTTL outlives any calendar day in any timezone.
const DefaultTTL = 48 * time.Hour

// RedisStore keeps daily state in Redis so several processes share it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a RedisStore. A non-positive ttl uses DefaultTTL.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) PutIfAbsent(ctx context.Context, key, value string) (string, bool, error) {
	k := KeyPrefix + key
	// A key can expire between SETNX and GET; one more round settles it.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := r.client.SetNX(ctx, k, value, r.ttl).Result()
		if err != nil {
			return "", false, fmt.Errorf("setnx %s: %w", k, err)
		}
		if ok {
			return value, true, nil
		}
		stored, err := r.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("get %s: %w", k, err)
		}
		return stored, false, nil
	}
	return "", false, fmt.Errorf("put %s: key kept expiring", k)
}

// Connect opens a Redis client and checks it answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("testing connection: %w", err)
	}
	return client, nil
}
