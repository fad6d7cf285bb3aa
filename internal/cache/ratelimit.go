package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RateLimiter implements sliding window rate limiting using Redis
type RateLimiter struct {
	redis  *Redis
	config *config.RateLimitConfig
}

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed    bool
	Remaining  int64
	Limit      int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redis *Redis, cfg *config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redis,
		config: cfg,
	}
}

// Check checks if a request from subject is allowed under the rate limit
func (r *RateLimiter) Check(ctx context.Context, subject string) (*RateLimitResult, error) {
	limit := r.config.Requests
	windowSeconds := r.config.WindowSeconds
	if windowSeconds <= 0 {
		windowSeconds = 60
	}
	windowDuration := time.Duration(windowSeconds) * time.Second
	now := time.Now()

	// Without Redis there is no shared window; fail open.
	if !r.redis.Available() {
		return &RateLimitResult{Allowed: true, Remaining: int64(limit), Limit: limit, ResetAt: now.Add(windowDuration)}, nil
	}

	windowStart := now.Add(-windowDuration)
	key := fmt.Sprintf("ratelimit:sliding:%s", subject)

	// Score = timestamp, Member = unique request ID
	pipe := r.redis.Client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart.UnixNano()))
	countCmd := pipe.ZCard(ctx, key)

	if err := r.redis.breaker.do(ctx, func() error {
		_, execErr := pipe.Exec(ctx)
		return execErr
	}); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("Failed to check rate limit")
		return &RateLimitResult{Allowed: true, Remaining: int64(limit), Limit: limit}, nil
	}

	currentCount := countCmd.Val()
	result := &RateLimitResult{
		Limit:   limit,
		ResetAt: now.Add(windowDuration),
	}

	if currentCount >= int64(limit) {
		result.Allowed = false
		result.Remaining = 0

		var oldest []redis.Z
		err := r.redis.breaker.do(ctx, func() error {
			var rangeErr error
			oldest, rangeErr = r.redis.Client.ZRangeWithScores(ctx, key, 0, 0).Result()
			return rangeErr
		})
		if err == nil && len(oldest) > 0 {
			oldestTime := time.Unix(0, int64(oldest[0].Score))
			result.RetryAfter = oldestTime.Add(windowDuration).Sub(now)
			if result.RetryAfter < 0 {
				result.RetryAfter = time.Second
			}
		} else {
			result.RetryAfter = windowDuration
		}
		return result, nil
	}

	member := fmt.Sprintf("%d-%s", now.UnixNano(), subject)
	if err := r.redis.breaker.do(ctx, func() error {
		_, execErr := r.redis.Client.TxPipelined(ctx, func(tx redis.Pipeliner) error {
			tx.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixNano()), Member: member})
			tx.Expire(ctx, key, windowDuration*2)
			return nil
		})
		return execErr
	}); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("Failed to add rate limit entry")
	}

	result.Allowed = true
	result.Remaining = int64(limit) - currentCount - 1
	if result.Remaining < 0 {
		result.Remaining = 0
	}
	return result, nil
}

// Reset clears the window for subject
func (r *RateLimiter) Reset(ctx context.Context, subject string) error {
	if !r.redis.Available() {
		return nil
	}
	return r.redis.breaker.do(ctx, func() error {
		return r.redis.Client.Del(ctx, fmt.Sprintf("ratelimit:sliding:%s", subject)).Err()
	})
}
