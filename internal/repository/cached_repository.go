package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Kosench/shortlink/internal/cache"
	"github.com/Kosench/shortlink/internal/model"
)

// CachedRecordStore caches redirect targets by short code. Only the
// immutable fields are cached; click counts always come from the store.
// Cache failures are logged and never fail the call.
type CachedRecordStore struct {
	store  RecordStore
	cache  cache.Cache
	keys   *cache.KeyBuilder
	logger *slog.Logger
}

func NewCachedRecordStore(store RecordStore, c cache.Cache, keys *cache.KeyBuilder, logger *slog.Logger) *CachedRecordStore {
	if keys == nil {
		keys = cache.NewKeyBuilder("")
	}
	return &CachedRecordStore{
		store:  store,
		cache:  c,
		keys:   keys,
		logger: logger,
	}
}

func (r *CachedRecordStore) Insert(ctx context.Context, url *model.ShortURL) error {
	if err := r.store.Insert(ctx, url); err != nil {
		return err
	}

	r.setTarget(ctx, url, 0)
	return nil
}

// GetByShortCode always reads the store, so clicks are never stale.
func (r *CachedRecordStore) GetByShortCode(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	return r.store.GetByShortCode(ctx, shortCode)
}

// GetTarget reads through the cache. Cached entries carry no clicks, so
// they never need invalidation.
func (r *CachedRecordStore) GetTarget(ctx context.Context, shortCode string) (*model.ShortURL, error) {
	cacheKey := r.keys.URL(shortCode)

	var cached model.ShortURL
	err := r.cache.Get(ctx, cacheKey, &cached)
	if err == nil {
		return &cached, nil
	}

	if !errors.Is(err, cache.ErrCacheMiss) {
		r.logger.Warn("cache read failed", slog.String("key", cacheKey), slog.Any("error", err))
	}

	url, err := r.store.GetTarget(ctx, shortCode)
	if err != nil {
		return nil, err
	}

	r.setTarget(ctx, url, 0)
	return url, nil
}

func (r *CachedRecordStore) GetByID(ctx context.Context, id int64) (*model.ShortURL, error) {
	return r.store.GetByID(ctx, id)
}

func (r *CachedRecordStore) IncrementClicks(ctx context.Context, id int64) (bool, error) {
	return r.store.IncrementClicks(ctx, id)
}

// setTarget caches url without its clicks. ttl 0 means the cache default.
func (r *CachedRecordStore) setTarget(ctx context.Context, url *model.ShortURL, ttl time.Duration) bool {
	key := r.keys.URL(url.ShortCode)

	var err error
	if ttl > 0 {
		err = r.cache.SetWithTTL(ctx, key, url.Target(), ttl)
	} else {
		err = r.cache.Set(ctx, key, url.Target())
	}

	if err != nil {
		r.logger.Warn("failed to cache URL", slog.String("short_code", url.ShortCode), slog.Any("error", err))
		return false
	}
	return true
}

func (r *CachedRecordStore) ListMostClicked(ctx context.Context, limit int) ([]*model.ShortURL, error) {
	return r.store.ListMostClicked(ctx, limit)
}

// Warmup preloads the most clicked records and returns how many were cached.
func (r *CachedRecordStore) Warmup(ctx context.Context, limit int, ttl time.Duration) (int, error) {
	urls, err := r.store.ListMostClicked(ctx, limit)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, url := range urls {
		if r.setTarget(ctx, url, ttl) {
			count++
		}
	}

	r.logger.Info("warmed up cache", slog.Int("count", count))
	return count, nil
}
