package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/promoguard/promoscan/internal/models"
)

// Memory is the in-process cache backend
type Memory struct {
	store *gocache.Cache
}

// NewMemory creates an in-process cache. Expired entries are swept every
// cleanupInterval.
func NewMemory(defaultTTL, cleanupInterval time.Duration) *Memory {
	return &Memory{store: gocache.New(defaultTTL, cleanupInterval)}
}

// Get returns the cached result for key, or ErrMiss
func (m *Memory) Get(_ context.Context, key string) (*models.AnalysisResult, error) {
	v, ok := m.store.Get(key)
	if !ok {
		return nil, ErrMiss
	}
	result, ok := v.(*models.AnalysisResult)
	if !ok {
		return nil, ErrMiss
	}
	return result, nil
}

// Set stores the result under key for ttl
func (m *Memory) Set(_ context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error {
	m.store.Set(key, result, ttl)
	return nil
}
