package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"maitred/internal/admission"
	"maitred/internal/models"
)

// RulesCache is a read-through Redis cache in front of the availability
// rules store. The synchronous booking path checks admission on every
// request, so rules are cached with a TTL; writes to rules happen rarely and
// outside this engine. Cache failures are logged and fall through to the
// underlying store, never surfaced to callers.
type RulesCache struct {
	store  admission.RulesStore
	client *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// NewRulesCache wraps store with a Redis TTL cache.
func NewRulesCache(store admission.RulesStore, client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *RulesCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RulesCache{store: store, client: client, ttl: ttl, logger: logger}
}

// GetOpeningHours implements admission.RulesStore.
func (c *RulesCache) GetOpeningHours(ctx context.Context, restaurantID int64) ([]models.OpeningHours, error) {
	key := fmt.Sprintf("maitred:rules:hours:%d", restaurantID)
	var cached []models.OpeningHours
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	hours, err := c.store.GetOpeningHours(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, hours)
	return hours, nil
}

// GetSpecialPeriods implements admission.RulesStore.
func (c *RulesCache) GetSpecialPeriods(ctx context.Context, restaurantID int64) ([]models.SpecialPeriod, error) {
	key := fmt.Sprintf("maitred:rules:periods:%d", restaurantID)
	var cached []models.SpecialPeriod
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	periods, err := c.store.GetSpecialPeriods(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, periods)
	return periods, nil
}

// GetCutOffTimes implements admission.RulesStore.
func (c *RulesCache) GetCutOffTimes(ctx context.Context, restaurantID int64) ([]models.CutOffTime, error) {
	key := fmt.Sprintf("maitred:rules:cutoffs:%d", restaurantID)
	var cached []models.CutOffTime
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	cutoffs, err := c.store.GetCutOffTimes(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, cutoffs)
	return cutoffs, nil
}

// Invalidate drops all cached rules for a restaurant, called after the
// configuration surface edits them.
func (c *RulesCache) Invalidate(ctx context.Context, restaurantID int64) {
	keys := []string{
		fmt.Sprintf("maitred:rules:hours:%d", restaurantID),
		fmt.Sprintf("maitred:rules:periods:%d", restaurantID),
		fmt.Sprintf("maitred:rules:cutoffs:%d", restaurantID),
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Int64("restaurant_id", restaurantID).Msg("rules cache invalidation failed")
	}
}

func (c *RulesCache) get(ctx context.Context, key string, dest any) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("rules cache read failed")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("rules cache decode failed")
		return false
	}
	return true
}

func (c *RulesCache) set(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("rules cache encode failed")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("rules cache write failed")
	}
}
