package cache

import (
	"context"
	"errors"
	"time"

	"github.com/promoguard/promoscan/internal/models"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Cache is the pipeline result cache boundary. Keys are opaque strings;
// values are full pipeline results. Backends decide their own storage
// format, so nothing here assumes in-memory or distributed.
type Cache interface {
	Get(ctx context.Context, key string) (*models.AnalysisResult, error)
	Set(ctx context.Context, key string, result *models.AnalysisResult, ttl time.Duration) error
}
