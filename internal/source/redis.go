package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is read when the URL has no #key fragment.
const DefaultRedisKey = "vizille:actions"

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisSource reads the dataset JSON stored under a string key.
type RedisSource struct {
	client stringGetter
	close  func() error
	key    string
	addr   string
}

// NewRedisSource parses redis://[user:pass@]host:port/db#key.
func NewRedisSource(rawURL string) (*RedisSource, error) {
	base, key, _ := strings.Cut(rawURL, "#")
	if key == "" {
		key = DefaultRedisKey
	}
	opt, err := redis.ParseURL(base)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	return &RedisSource{client: client, close: client.Close, key: key, addr: opt.Addr}, nil
}

// Fetch reads the key. A missing key is an error.
func (r *RedisSource) Fetch(ctx context.Context) ([]byte, error) {
	b, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis key %q not found", r.key)
	}
	if err != nil {
		return nil, err
	}
	return checkSize(b)
}

// Close releases the connection pool.
func (r *RedisSource) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

func (r *RedisSource) String() string { return "redis://" + r.addr + "#" + r.key }
