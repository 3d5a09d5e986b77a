package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"

	"github.com/giant-rabbit/lti-tool-provider/core"
)

const consumerCacheKeyPrefix = "lti-tool-provider::consumer::v1"

type cachedConsumerEntry struct {
	Consumer core.Consumer
	Found    bool
}

// CachedConsumerStore layers a read-through cache over a consumer store.
// Launch verification hits the consumer table on every request, so the
// lookup is the hottest read in the system.
type CachedConsumerStore struct {
	base  core.ConsumerStore
	cache repositorycache.CacheService
}

func NewCachedConsumerStore(base core.ConsumerStore, cacheService repositorycache.CacheService) (*CachedConsumerStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base consumer store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: consumer cache service is required")
	}
	return &CachedConsumerStore{base: base, cache: cacheService}, nil
}

// ConsumerCacheKey returns the deterministic cache key contract for consumer
// reads: lti-tool-provider::consumer::v1::<key> with the key segment
// URL-path escaped.
func ConsumerCacheKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("sqlstore: consumer key is required")
	}
	return consumerCacheKeyPrefix + "::" + url.PathEscape(key), nil
}

func (s *CachedConsumerStore) FindByKey(ctx context.Context, key string) (core.Consumer, bool, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Consumer{}, false, fmt.Errorf("sqlstore: cached consumer store is not configured")
	}
	cacheKey, err := ConsumerCacheKey(key)
	if err != nil {
		return core.Consumer{}, false, err
	}

	entry, err := repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (cachedConsumerEntry, error) {
		consumer, found, fetchErr := s.base.FindByKey(ctx, key)
		if fetchErr != nil {
			return cachedConsumerEntry{}, fetchErr
		}
		return cachedConsumerEntry{Consumer: consumer, Found: found}, nil
	})
	if err != nil {
		return core.Consumer{}, false, err
	}
	return entry.Consumer, entry.Found, nil
}

// Invalidate drops the cached entry after a provisioning change.
func (s *CachedConsumerStore) Invalidate(ctx context.Context, key string) error {
	if s == nil || s.cache == nil {
		return fmt.Errorf("sqlstore: cached consumer store is not configured")
	}
	cacheKey, err := ConsumerCacheKey(key)
	if err != nil {
		return err
	}
	return s.cache.Delete(ctx, cacheKey)
}

var _ core.ConsumerStore = (*CachedConsumerStore)(nil)
