package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisSuggestionCache struct {
	client *redis.Client
}

func NewRedisSuggestionCache(addr string, password string, db int) *RedisSuggestionCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisSuggestionCache{client: client}
}

func (c *RedisSuggestionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisSuggestionCache) Close() error {
	return c.client.Close()
}

func (c *RedisSuggestionCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var suggestions []string
	if err := json.Unmarshal(raw, &suggestions); err != nil {
		return nil, false, err
	}
	return suggestions, true, nil
}

// Set stores suggestions for ttl. An empty list is cached too so a cart with
// nothing to suggest does not hit the generator again.
func (c *RedisSuggestionCache) Set(ctx context.Context, key string, suggestions []string, ttl time.Duration) error {
	if suggestions == nil {
		suggestions = []string{}
	}
	payload, err := json.Marshal(suggestions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}
