// Package redis caches per-user badge summaries so profile screens can
// render without a full re-evaluation. The cache is never a source of
// truth: the snapshot is always recomputed from the attendance log, and a
// cache miss just means the next read goes through the engine.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/concert-badges/internal/config"
	"github.com/concert-badges/internal/domain"
)

// ErrCacheMiss is returned when no summary is cached for a user
var ErrCacheMiss = redis.Nil

// BadgeSummary is the cached view of a user's last evaluation run
type BadgeSummary struct {
	UserID         string                     `json:"user_id"`
	EarnedBadgeIDs []string                   `json:"earned_badge_ids"`
	Progress       map[string]domain.Progress `json:"progress"`
	TotalPoints    int                        `json:"total_points"`
	CatalogVersion string                     `json:"catalog_version"`
	EvaluatedAt    time.Time                  `json:"evaluated_at"`
}

// Cache provides Redis-backed badge summary caching
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache creates a new badge summary cache
func NewCache(cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	// Test connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) summaryKey(userID string) string {
	return fmt.Sprintf("badges:%s:summary", userID)
}

// SetSummary stores a user's badge summary
func (c *Cache) SetSummary(ctx context.Context, summary BadgeSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := c.client.Set(ctx, c.summaryKey(summary.UserID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("setting summary: %w", err)
	}
	return nil
}

// GetSummary retrieves a user's cached badge summary. Returns ErrCacheMiss
// when nothing is cached.
func (c *Cache) GetSummary(ctx context.Context, userID string) (*BadgeSummary, error) {
	data, err := c.client.Get(ctx, c.summaryKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("getting summary: %w", err)
	}

	var summary BadgeSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("unmarshaling summary: %w", err)
	}
	return &summary, nil
}

// Invalidate drops a user's cached summary. Used when a log mutation
// lands before the follow-up evaluation has written a fresh summary.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, c.summaryKey(userID)).Err(); err != nil {
		return fmt.Errorf("invalidating summary: %w", err)
	}
	return nil
}
