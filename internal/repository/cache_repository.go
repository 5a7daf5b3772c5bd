package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/juliasaboya/ScheduleEngine/pkg/errors"
)

// swapVersionScript replaces KEYS[1] only when the stored document's
// top-level "version" equals ARGV[2]. An expected version of 0 requires the
// key to be absent.
var swapVersionScript = redis.NewScript(`
local current = redis.call('GET', KEYS[1])
local expected = tonumber(ARGV[2])
if current then
  local ok, doc = pcall(cjson.decode, current)
  if not ok or tonumber(doc['version']) ~= expected then
    return 0
  end
elseif expected ~= 0 then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// CacheRepository keeps versioned JSON documents in Redis.
type CacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCacheRepository wraps an established Redis client.
func NewCacheRepository(client *redis.Client, logger *zap.Logger) *CacheRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheRepository{client: client, logger: logger}
}

// Get decodes the document stored under key into dest. A missing key yields
// appErrors.ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return appErrors.ErrCacheMiss
	case err != nil:
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SwapVersioned stores value under key when the current document carries
// the expected version, atomically on the server. It reports false when
// another writer got there first.
func (r *CacheRepository) SwapVersioned(ctx context.Context, key string, value interface{}, ttl time.Duration, expected int) (bool, error) {
	if ttl <= 0 {
		return false, fmt.Errorf("swap %s: ttl must be positive", key)
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("encode %s: %w", key, err)
	}
	swapped, err := swapVersionScript.Run(ctx, r.client, []string{key}, payload, expected, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("redis swap %s: %w", key, err)
	}
	if swapped == 0 {
		r.logger.Debug("version mismatch", zap.String("key", key), zap.Int("expected", expected))
	}
	return swapped == 1, nil
}

// Ping reports whether Redis is reachable.
func (r *CacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis connection pool.
func (r *CacheRepository) Close() error {
	return r.client.Close()
}
