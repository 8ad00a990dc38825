// Package suggestion produces upsell prompts for the items in the cart.
package suggestion

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"pdvcaixa/internal/cache"
	"pdvcaixa/internal/logger"
)

// MaxSuggestions is the most the till ever shows at once.
const MaxSuggestions = 3

type Suggester interface {
	Suggest(ctx context.Context, itemNames []string) ([]string, error)
}

// Engine fronts a Suggester with a cache. Generator failures never reach the
// caller; the till just shows nothing.
type Engine struct {
	suggester Suggester
	cache     cache.SuggestionCache
	cacheTTL  time.Duration
	log       *logger.Logger
}

func NewEngine(suggester Suggester, cacheStore cache.SuggestionCache, cacheTTL time.Duration, log *logger.Logger) *Engine {
	if cacheStore == nil {
		cacheStore = cache.NoopSuggestionCache{}
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		suggester: suggester,
		cache:     cacheStore,
		cacheTTL:  cacheTTL,
		log:       log.WithComponent("suggestion"),
	}
}

func (e *Engine) Suggest(ctx context.Context, itemNames []string) []string {
	names := normalizeNames(itemNames)
	if len(names) == 0 || e.suggester == nil {
		return []string{}
	}

	key := buildCacheKey(names)
	if cached, ok, err := e.cache.Get(ctx, key); err == nil && ok {
		return cached
	} else if err != nil {
		e.log.Debugw("suggestion cache read failed", "error", err)
	}

	raw, err := e.suggester.Suggest(ctx, names)
	if err != nil {
		e.log.Warnw("suggestion lookup failed", "items", len(names), "error", err)
		return []string{}
	}

	out := filterSuggestions(raw, names)
	if err := e.cache.Set(ctx, key, out, e.cacheTTL); err != nil {
		e.log.Debugw("suggestion cache write failed", "error", err)
	}
	return out
}

// filterSuggestions trims, dedupes and caps raw, dropping anything already
// in the cart.
func filterSuggestions(raw []string, inCart []string) []string {
	seen := make(map[string]struct{}, len(raw)+len(inCart))
	for _, name := range inCart {
		seen[strings.ToLower(name)] = struct{}{}
	}

	out := make([]string, 0, MaxSuggestions)
	for _, s := range raw {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)
		if len(out) == MaxSuggestions {
			break
		}
	}
	return out
}

func normalizeNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, dup := seen[strings.ToLower(name)]; dup {
			continue
		}
		seen[strings.ToLower(name)] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func buildCacheKey(names []string) string {
	lowered := make([]string, len(names))
	for i, name := range names {
		lowered[i] = strings.ToLower(name)
	}
	sort.Strings(lowered)
	hash := sha1.Sum([]byte(strings.Join(lowered, "|")))
	return "pos:suggestion:" + hex.EncodeToString(hash[:])
}
