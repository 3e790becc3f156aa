package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"minitweet/internal/model"

	"github.com/redis/go-redis/v9"
)

const (
	// SummaryCachePrefix is the key prefix for cached author summaries
	SummaryCachePrefix = "user:summary:"

	// DefaultSummaryTTL applies when no TTL is configured
	DefaultSummaryTTL = 5 * time.Minute
)

// SummaryCache stores UserSummary values keyed by user ID.
// A miss is never an error; callers fall back to the database and repopulate.
type SummaryCache interface {
	// GetMany returns the cached summaries among ids and the ids that missed.
	// Uses a single MGET.
	GetMany(ctx context.Context, ids []string) (hits map[string]model.UserSummary, misses []string, err error)

	// SetMany writes summaries with the cache TTL in one pipeline.
	SetMany(ctx context.Context, summaries []model.UserSummary) error

	// Invalidate drops a user's summary after a profile change.
	Invalidate(ctx context.Context, userID string) error
}

// RedisSummaryCache implements SummaryCache using plain string keys holding JSON.
type RedisSummaryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSummaryCache creates a SummaryCache backed by Redis.
func NewSummaryCache(client *redis.Client, ttl time.Duration) SummaryCache {
	if ttl <= 0 {
		ttl = DefaultSummaryTTL
	}
	return &RedisSummaryCache{client: client, ttl: ttl}
}

func summaryKey(userID string) string {
	return SummaryCachePrefix + userID
}

func (c *RedisSummaryCache) GetMany(ctx context.Context, ids []string) (map[string]model.UserSummary, []string, error) {
	hits := make(map[string]model.UserSummary, len(ids))
	if len(ids) == 0 {
		return hits, nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = summaryKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Printf("[SummaryCache] GetMany FAILED: keys=%d err=%v", len(keys), err)
		return nil, ids, fmt.Errorf("mget summaries: %w", err)
	}

	var misses []string
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			misses = append(misses, ids[i])
			continue
		}
		var s model.UserSummary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			// Corrupt entry, treat as a miss so SetMany overwrites it.
			misses = append(misses, ids[i])
			continue
		}
		hits[ids[i]] = s
	}
	return hits, misses, nil
}

func (c *RedisSummaryCache) SetMany(ctx context.Context, summaries []model.UserSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	startTime := time.Now()

	pipe := c.client.Pipeline()
	for _, s := range summaries {
		b, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("marshal summary %s: %w", s.ID, err)
		}
		pipe.Set(ctx, summaryKey(s.ID), b, c.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("[SummaryCache] SetMany FAILED: count=%d err=%v", len(summaries), err)
		return fmt.Errorf("set summaries: %w", err)
	}

	log.Printf("[SummaryCache] SetMany OK: count=%d duration=%v", len(summaries), time.Since(startTime))
	return nil
}

func (c *RedisSummaryCache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, summaryKey(userID)).Err(); err != nil {
		log.Printf("[SummaryCache] Invalidate FAILED: user=%s err=%v", userID, err)
		return fmt.Errorf("invalidate summary: %w", err)
	}
	return nil
}
