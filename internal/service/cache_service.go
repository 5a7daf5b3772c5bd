package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
)

// CacheRepository persists versioned documents.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	SwapVersioned(ctx context.Context, key string, value interface{}, ttl time.Duration, expected int) (bool, error)
}

// CacheService instruments a CacheRepository with hit ratio and write
// latency metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
}

// NewCacheService constructs a cache service. A disabled service never
// reports hits.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get loads key into dest and reports whether it was found.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case errors.Is(err, appErrors.ErrCacheMiss):
		return false, nil
	case err != nil:
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return true, nil
}

// SwapVersioned writes value when the stored version equals expected.
// Zero ttl falls back to the default.
func (s *CacheService) SwapVersioned(ctx context.Context, key string, value interface{}, ttl time.Duration, expected int) (bool, error) {
	if !s.Enabled() {
		return false, errors.New("cache disabled")
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	swapped, err := s.repo.SwapVersioned(ctx, key, value, ttl, expected)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
	return swapped, err
}
