package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fortuna/courtside/internal/possession"
)

const summaryPrefix = "courtside:summary:"

// SummaryKey is the cache key of a game's possession summary
func SummaryKey(gameID string) string {
	return summaryPrefix + gameID
}

// SummaryCache stores per-game possession summaries
type SummaryCache struct {
	cache *RedisCache
	ttl   time.Duration
}

// NewSummaryCache creates a summary cache; ttl 0 means no expiry
func NewSummaryCache(cache *RedisCache, ttl time.Duration) *SummaryCache {
	return &SummaryCache{cache: cache, ttl: ttl}
}

// Get returns the cached summary, or ok=false on a miss
func (c *SummaryCache) Get(ctx context.Context, gameID string) (*possession.Summary, bool, error) {
	var summary possession.Summary
	err := c.cache.GetJSON(ctx, SummaryKey(gameID), &summary)
	if errors.Is(err, ErrMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading summary for %s: %w", gameID, err)
	}
	return &summary, true, nil
}

// Set stores the summary for a game
func (c *SummaryCache) Set(ctx context.Context, gameID string, summary *possession.Summary) error {
	if err := c.cache.SetJSON(ctx, SummaryKey(gameID), summary, c.ttl); err != nil {
		return fmt.Errorf("writing summary for %s: %w", gameID, err)
	}
	return nil
}

// Invalidate drops the cached summary for a game
func (c *SummaryCache) Invalidate(ctx context.Context, gameID string) error {
	return c.cache.Delete(ctx, SummaryKey(gameID))
}
