package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ikkim/qna-forum-backend/config"
	"github.com/ikkim/qna-forum-backend/pkg/logger"
	redispkg "github.com/ikkim/qna-forum-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// ReplyCache holds rendered reply lists per post. Values are stored as JSON so
// callers never share memory with the cache.
type ReplyCache interface {
	// Get decodes the entry into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	// InvalidatePost drops every list cached for the post.
	InvalidatePost(ctx context.Context, postID uint) error
	// InvalidateAll drops every reply list, for writes that span posts.
	InvalidateAll(ctx context.Context) error
}

const keyPrefix = "forum:replies:"

func postPrefix(postID uint) string {
	return fmt.Sprintf("%spost:%d:", keyPrefix, postID)
}

// ReplyListKey identifies one (post, parent, sort) listing
func ReplyListKey(postID uint, parentID *uint, sort string) string {
	parent := "root"
	if parentID != nil {
		parent = fmt.Sprintf("%d", *parentID)
	}
	if sort == "" {
		sort = "created_at"
	}
	return fmt.Sprintf("%sparent:%s:sort:%s", postPrefix(postID), parent, sort)
}

// New returns a Redis backed cache when rc is non-nil, else an in-process LRU
func New(cfg config.CacheConfig, rc *redis.Client) (ReplyCache, error) {
	if rc != nil {
		return &redisCache{client: rc, ttl: cfg.TTL}, nil
	}
	return NewLocal(cfg.LocalSize, cfg.TTL)
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

func (c *redisCache) InvalidatePost(ctx context.Context, postID uint) error {
	n, err := redispkg.DeleteByPrefix(ctx, c.client, postPrefix(postID))
	if err != nil {
		return err
	}
	logger.Debug("Reply cache invalidated", map[string]interface{}{
		"post_id": postID,
		"keys":    n,
	})
	return nil
}

func (c *redisCache) InvalidateAll(ctx context.Context) error {
	n, err := redispkg.DeleteByPrefix(ctx, c.client, keyPrefix)
	if err != nil {
		return err
	}
	logger.Debug("Reply cache flushed", map[string]interface{}{
		"keys": n,
	})
	return nil
}

type localEntry struct {
	raw       []byte
	expiresAt time.Time
}

type localCache struct {
	entries *lru.Cache[string, localEntry]
	ttl     time.Duration
	now     func() time.Time
}

// NewLocal creates an LRU cache holding at most size entries for ttl each
func NewLocal(size int, ttl time.Duration) (ReplyCache, error) {
	if size <= 0 {
		size = 512
	}
	l, err := lru.New[string, localEntry](size)
	if err != nil {
		return nil, err
	}
	return &localCache{entries: l, ttl: ttl, now: time.Now}, nil
}

func (c *localCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return false, nil
	}
	if c.now().After(entry.expiresAt) {
		c.entries.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(entry.raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *localCache) Set(_ context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries.Add(key, localEntry{raw: raw, expiresAt: c.now().Add(c.ttl)})
	return nil
}

func (c *localCache) InvalidatePost(_ context.Context, postID uint) error {
	c.removePrefix(postPrefix(postID))
	return nil
}

func (c *localCache) InvalidateAll(_ context.Context) error {
	c.removePrefix(keyPrefix)
	return nil
}

func (c *localCache) removePrefix(prefix string) {
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.entries.Remove(key)
		}
	}
}
