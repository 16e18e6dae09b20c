// Package cache is a best-effort redis layer in front of the store. Every
// method degrades to a no-op (with a warning) when redis is unreachable, so
// callers never fail because the cache did.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keyPrefix = "smartgate:"

// Key builders shared by the services and the rate-limit middleware.
func AccessEventsKey() string             { return keyPrefix + "access_events" }
func GuestSessionKey(plate string) string { return keyPrefix + "guest_session:" + plate }
func InferenceKey(gateSlug string) string { return keyPrefix + "inference:" + gateSlug }
func RateLimitKey(gateSlug string) string { return keyPrefix + "ratelimit:" + gateSlug }

type Cache struct {
	client *redis.Client
	log    zerolog.Logger
}

// New pings redis once and returns a disabled cache when the ping fails.
func New(ctx context.Context, addr, password string, db int, log zerolog.Logger) *Cache {
	if addr == "" {
		log.Info().Msg("cache disabled: no redis address configured")
		return &Cache{log: log}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("cache disabled: redis unreachable")
		return &Cache{log: log}
	}
	log.Info().Str("addr", addr).Msg("cache connected")
	return &Cache{client: client, log: log}
}

func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

func (c *Cache) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// SetJSON stores a value under key with a TTL. A zero TTL keeps the key
// until it is deleted.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set: marshal failed")
		return
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// GetJSON loads key into dest. It reports whether a value was found.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) bool {
	if !c.Enabled() {
		return false
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache get: unmarshal failed")
		return false
	}
	return true
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if !c.Enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.log.Warn().Err(err).Strs("keys", keys).Msg("cache delete failed")
	}
}

// PushJSON prepends a value to a capped list, trimming it to maxLen.
func (c *Cache) PushJSON(ctx context.Context, key string, value any, maxLen int64) {
	if !c.Enabled() {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache push: marshal failed")
		return
	}
	pipe := c.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	if maxLen > 0 {
		pipe.LTrim(ctx, key, 0, maxLen-1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache push failed")
	}
}

// ListJSON reads up to limit newest entries of a capped list. ok=false means
// the cache had nothing usable and the caller should hit the store.
func ListJSON[T any](ctx context.Context, c *Cache, key string, limit int64) ([]T, bool) {
	if !c.Enabled() {
		return nil, false
	}
	if limit <= 0 {
		limit = -1
	}
	raw, err := c.client.LRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache lrange failed")
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}
	out := make([]T, 0, len(raw))
	for _, item := range raw {
		var value T
		if err := json.Unmarshal([]byte(item), &value); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache lrange: unmarshal failed")
			return nil, false
		}
		out = append(out, value)
	}
	return out, true
}

// HitRateLimit applies a fixed-window counter to key: the first hit of a
// window sets the expiry, later hits only increment. It returns the count
// within the current window; ok=false means redis could not answer and the
// caller should fall back to its local limiter.
func (c *Cache) HitRateLimit(ctx context.Context, key string, window time.Duration) (count int64, ok bool) {
	if !c.Enabled() {
		return 0, false
	}
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache incr failed")
		return 0, false
	}
	if count == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			c.log.Warn().Err(err).Str("key", key).Msg("cache expire failed")
		}
	}
	return count, true
}

// Healthy reports cache reachability for the health endpoint.
func (c *Cache) Healthy(ctx context.Context) error {
	if !c.Enabled() {
		return fmt.Errorf("cache disabled")
	}
	return c.client.Ping(ctx).Err()
}
