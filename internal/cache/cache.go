package cache

import (
	"context"
	"time"
)

// SuggestionCache keeps upsell suggestions keyed by cart contents. A miss is
// reported with ok false and a nil error.
type SuggestionCache interface {
	Get(ctx context.Context, key string) (suggestions []string, ok bool, err error)
	Set(ctx context.Context, key string, suggestions []string, ttl time.Duration) error
}

type NoopSuggestionCache struct{}

func (NoopSuggestionCache) Get(_ context.Context, _ string) ([]string, bool, error) {
	return nil, false, nil
}

func (NoopSuggestionCache) Set(_ context.Context, _ string, _ []string, _ time.Duration) error {
	return nil
}
