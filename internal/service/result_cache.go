package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/classtable-engine/internal/scheduler"
	appErrors "github.com/noah-isme/classtable-engine/pkg/errors"
)

// ResultCache caches a solve outcome by instance and request shape (Get/Set
// over a *redis.Client, JSON payloads, ErrCacheMiss on absence): a second
// solve of an unchanged instance with the same options is served from
// Redis instead of re-running the constructive search.
type ResultCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewResultCache constructs a result cache. A nil client disables caching;
// every method becomes a guaranteed miss / no-op write.
func NewResultCache(client *redis.Client, logger *zap.Logger) *ResultCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResultCache{client: client, logger: logger}
}

// Key derives a deterministic cache key from the inputs that affect a
// solve's result: the instance identity and the requested solve options
// (as given by the caller, before Solve applies its defaults).
// Idempotence is what makes this safe to cache at all — the same seed and
// inputs always rank the same candidates.
func (c *ResultCache) Key(instanceID string, opts scheduler.SolveOptions) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d|%d|%t",
		instanceID, opts.SolutionLimit, opts.TimeLimitSeconds, opts.Seed, opts.HasSeed)))
	return "solve:" + hex.EncodeToString(sum[:])
}

// Get retrieves a previously cached outcome, or appErrors.ErrCacheMiss if
// absent (or caching is disabled).
func (c *ResultCache) Get(ctx context.Context, key string) (scheduler.SolveOutcome, error) {
	if c == nil || c.client == nil {
		return scheduler.SolveOutcome{}, appErrors.ErrCacheMiss
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return scheduler.SolveOutcome{}, appErrors.ErrCacheMiss
		}
		return scheduler.SolveOutcome{}, fmt.Errorf("redis get %s: %w", key, err)
	}

	var outcome scheduler.SolveOutcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return scheduler.SolveOutcome{}, fmt.Errorf("unmarshal cached outcome for %s: %w", key, err)
	}
	return outcome, nil
}

// Set stores an outcome under key with the given TTL. Errors are logged
// and swallowed: a cache-write failure must never fail the solve itself.
func (c *ResultCache) Set(ctx context.Context, key string, outcome scheduler.SolveOutcome, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	payload, err := json.Marshal(outcome)
	if err != nil {
		c.logger.Sugar().Warnw("failed to marshal solve outcome for cache", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Sugar().Warnw("failed to write solve outcome to cache", "key", key, "error", err)
	}
}
