// internal/workers/feed/generate-feed/cache.go
package generatefeed

import (
	"context"
	stderrors "errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

// PageCache stores composed pages. A miss is (nil, nil).
type PageCache interface {
	Get(ctx context.Context, key string) (*Output, error)
	Set(ctx context.Context, key string, page *Output) error
}

// PagePattern matches every cached page of a user.
func PagePattern(userID string) string {
	return fmt.Sprintf("feed:page:%s:*", userID)
}

// PageKey is feed:page:<userId>:<fingerprint>, the fingerprint being FNV-64a
// over the canonical JSON of the request.
func PageKey(input *Input) (string, error) {
	canonical, err := json.Marshal(input)
	if err != nil {
		return "", err
	}
	h := fnv.New64a()
	_, _ = h.Write(canonical)
	return fmt.Sprintf("feed:page:%s:%016x", input.UserContext.UserID, h.Sum64()), nil
}

type RedisPageCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisPageCache(rdb redis.Cmdable, ttl time.Duration) *RedisPageCache {
	return &RedisPageCache{rdb: rdb, ttl: ttl}
}

func (c *RedisPageCache) Get(ctx context.Context, key string) (*Output, error) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var page Output
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode cached page %s: %w", key, err)
	}
	return &page, nil
}

func (c *RedisPageCache) Set(ctx context.Context, key string, page *Output) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}
