package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"transit_router/pkg/tnr"
)

// DefaultPrefix namespaces distance keys.
const DefaultPrefix = "tnr:dist:"

// Redis stores distances in a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to addr and verifies the connection with PING.
func NewRedis(ctx context.Context, addr string, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis %s: %w", addr, err)
	}
	return &Redis{client: client, prefix: DefaultPrefix, ttl: ttl}, nil
}

func (r *Redis) key(s, t uint32) string {
	return fmt.Sprintf("%s%d:%d", r.prefix, s, t)
}

func (r *Redis) Get(ctx context.Context, s, t uint32) (tnr.Distance, bool, error) {
	val, err := r.client.Get(ctx, r.key(s, t)).Result()
	if errors.Is(err, redis.Nil) {
		return tnr.Unreachable, false, nil
	}
	if err != nil {
		return tnr.Unreachable, false, err
	}
	d, err := decodeDistance(val)
	if err != nil {
		return tnr.Unreachable, false, err
	}
	return d, true, nil
}

func (r *Redis) Set(ctx context.Context, s, t uint32, d tnr.Distance) error {
	return r.client.Set(ctx, r.key(s, t), encodeDistance(d), r.ttl).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
