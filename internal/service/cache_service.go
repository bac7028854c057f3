package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/Rzouga01/learnhub-api/pkg/errors"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePattern(ctx context.Context, pattern string) error
}

// CacheService provides JSON read-through caching on top of the cache
// repository. All methods are safe no-ops when the store is nil, so the
// application runs without Redis.
type CacheService struct {
	store   cacheStore
	metrics *MetricsService
	logger  *zap.Logger
}

// NewCacheService constructs a CacheService. Store may be nil.
func NewCacheService(store cacheStore, metrics *MetricsService, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{store: store, metrics: metrics, logger: logger}
}

// Get unmarshals the cached value into dest. The boolean distinguishes
// a hit from a miss; misses are not errors.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			s.recordMiss()
			return false, nil
		}
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// Stale shape from an older build; treat as a miss.
		s.recordMiss()
		return false, nil
	}
	s.recordHit()
	return true, nil
}

// Set marshals value and stores it under key for the given TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if s.store == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, key, string(raw), ttl)
}

// Delete removes the given keys.
func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if s.store == nil || len(keys) == 0 {
		return nil
	}
	return s.store.Delete(ctx, keys...)
}

// InvalidatePrefix drops every key under the given prefix.
func (s *CacheService) InvalidatePrefix(ctx context.Context, prefix string) error {
	if s.store == nil {
		return nil
	}
	return s.store.DeletePattern(ctx, prefix+"*")
}

func (s *CacheService) recordHit() {
	if s.metrics != nil {
		s.metrics.IncCacheHit()
	}
}

func (s *CacheService) recordMiss() {
	if s.metrics != nil {
		s.metrics.IncCacheMiss()
	}
}
