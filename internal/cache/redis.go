package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultTTL = 10 * time.Minute

// Redis wraps a go-redis client. A nil Redis or one without a client
// behaves as an always-missing cache so callers never need to branch.
type Redis struct {
	Client  *redis.Client
	ttl     time.Duration
	breaker *breaker

	warnedUnavailable atomic.Bool
}

// NewRedis connects to Redis. When Redis is disabled or unreachable the
// returned cache bypasses every call.
func NewRedis(cfg *config.RedisConfig) *Redis {
	if cfg == nil || !cfg.Enabled {
		return &Redis{}
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid REDIS_URL, bypassing cache")
		return &Redis{}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, bypassing cache")
		_ = client.Close()
		return &Redis{}
	}

	log.Info().Msg("Connected to Redis")
	return &Redis{Client: client, ttl: cfg.ReputationTTL, breaker: newBreaker(nil)}
}

// NewRedisFromClient wraps an existing client. A nil breaker config uses the defaults.
func NewRedisFromClient(client *redis.Client, ttl time.Duration, breakerCfg *BreakerConfig) *Redis {
	return &Redis{Client: client, ttl: ttl, breaker: newBreaker(breakerCfg)}
}

// Available reports whether a live client is attached
func (r *Redis) Available() bool {
	return r != nil && r.Client != nil
}

// BreakerState reports whether Redis calls are currently short-circuited
func (r *Redis) BreakerState() BreakerState {
	if !r.Available() {
		return BreakerStateClosed
	}
	return r.breaker.state()
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		log.Warn().Err(err).Msg("Redis error, bypassing cache")
	}
}

// Ping checks the connection
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Available() {
		return errors.New("redis unavailable")
	}
	return r.Client.Ping(ctx).Err()
}

// Close releases the client
func (r *Redis) Close() error {
	if !r.Available() {
		return nil
	}
	return r.Client.Close()
}

// GetJSON decodes the cached value into out. The boolean reports a hit.
func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if !r.Available() {
		return false, nil
	}
	var b []byte
	err := r.breaker.do(ctx, func() error {
		var getErr error
		b, getErr = r.Client.Get(ctx, key).Bytes()
		return getErr
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.warnUnavailableOnce(err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON stores value as JSON. A non-positive ttl uses the configured default.
func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !r.Available() {
		return nil
	}
	if ttl <= 0 {
		ttl = r.ttl
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.breaker.do(ctx, func() error {
		return r.Client.Set(ctx, key, b, ttl).Err()
	}); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

// Delete removes keys
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	if !r.Available() || len(keys) == 0 {
		return nil
	}
	if err := r.breaker.do(ctx, func() error {
		return r.Client.Del(ctx, keys...).Err()
	}); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

// ReputationKey is the cache key for a participant's reputation summary
func ReputationKey(participantID string) string {
	return fmt.Sprintf("reputation:%s", participantID)
}
