package translation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/review-pipeline/internal/cache"
	"github.com/review-pipeline/internal/metrics"
	"github.com/rs/zerolog"
)

// Store is the key-value subset the cache needs; *cache.Client satisfies it
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetEx(ctx context.Context, key, value string, ttl time.Duration) error
}

// Cache memoizes translations by (language, text). A nil or failing
// store turns every lookup into a miss.
type Cache struct {
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

// NewCache creates a translation cache
func NewCache(store Store, ttl time.Duration, log zerolog.Logger) *Cache {
	return &Cache{store: store, ttl: ttl, log: log}
}

// Key builds the cache key for text in lang. Text is hashed so long
// paragraphs don't become long keys.
func Key(lang, text string) string {
	sum := sha256.Sum256([]byte(text))
	return "translate:" + lang + ":" + hex.EncodeToString(sum[:])
}

// Get returns the cached translation, if any
func (c *Cache) Get(ctx context.Context, lang, text string) (string, bool) {
	if c == nil || c.store == nil {
		return "", false
	}
	val, ok, err := c.store.Get(ctx, Key(lang, text))
	if err != nil {
		if !errors.Is(err, cache.ErrDisabled) {
			metrics.CacheErrorsTotal.WithLabelValues("get").Inc()
			c.log.Warn().Err(err).Msg("Translation cache read failed")
		}
		return "", false
	}
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return "", false
	}
	metrics.CacheHitsTotal.Inc()
	return val, true
}

// Set stores a translation; failures are logged and dropped
func (c *Cache) Set(ctx context.Context, lang, text, translated string) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.SetEx(ctx, Key(lang, text), translated, c.ttl); err != nil && !errors.Is(err, cache.ErrDisabled) {
		metrics.CacheErrorsTotal.WithLabelValues("set").Inc()
		c.log.Warn().Err(err).Msg("Translation cache write failed")
	}
}
