package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promoguard/promoscan/internal/models"
)

// keyPrefix namespaces analysis entries in a shared redis instance
const keyPrefix = "promoscan:analysis:"

// Redis is the distributed cache backend for multi-instance deployments
type Redis struct {
	client *redis.Client
}

// NewRedis wraps an existing redis client as a result cache
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Get returns the cached result for key, or ErrMiss when absent
func (r *Redis) Get(ctx context.Context, key string) (*models.AnalysisResult, error) {
	data, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var result models.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode cached result: %w", err)
	}
	return &result, nil
}

// Set stores the result under key for ttl
func (r *Redis) Set(ctx context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result for cache: %w", err)
	}
	if err := r.client.Set(ctx, keyPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}
