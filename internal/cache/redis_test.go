package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aimerfeng/SkillSwap/internal/config"
	"github.com/redis/go-redis/v9"
)

func TestRedis_NilSafe(t *testing.T) {
	ctx := context.Background()

	var nilCache *Redis
	disabled := NewRedis(&config.RedisConfig{Enabled: false})

	for name, r := range map[string]*Redis{"nil": nilCache, "disabled": disabled} {
		t.Run(name, func(t *testing.T) {
			if r.Available() {
				t.Fatal("expected cache to be unavailable")
			}
			var out map[string]int
			hit, err := r.GetJSON(ctx, "k", &out)
			if hit || err != nil {
				t.Errorf("expected silent miss, got hit=%v err=%v", hit, err)
			}
			if err := r.SetJSON(ctx, "k", map[string]int{"a": 1}, 0); err != nil {
				t.Errorf("SetJSON should bypass: %v", err)
			}
			if err := r.Delete(ctx, "k"); err != nil {
				t.Errorf("Delete should bypass: %v", err)
			}
			if err := r.Ping(ctx); err == nil {
				t.Error("Ping should report unavailability")
			}
		})
	}
}

func TestRateLimiter_FailsOpenWithoutRedis(t *testing.T) {
	limiter := NewRateLimiter(&Redis{}, &config.RateLimitConfig{Enabled: true, Requests: 3, WindowSeconds: 60})

	for i := 0; i < 10; i++ {
		res, err := limiter.Check(context.Background(), "p-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d should be allowed without Redis", i)
		}
		if res.Limit != 3 {
			t.Errorf("expected limit 3, got %d", res.Limit)
		}
	}
}

func TestReputationKey(t *testing.T) {
	if got := ReputationKey("abc"); got != "reputation:abc" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestRedis_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := NewRedisFromClient(client, time.Minute, &BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})
	ctx := context.Background()

	var out map[string]int
	for i := 0; i < 2; i++ {
		if _, err := r.GetJSON(ctx, "k", &out); err == nil || errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("call %d should reach Redis and fail, got %v", i, err)
		}
	}

	if r.BreakerState() != BreakerStateOpen {
		t.Fatalf("expected open breaker, got %s", r.BreakerState())
	}
	if _, err := r.GetJSON(ctx, "k", &out); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if err := r.Delete(ctx, "k"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen from Delete, got %v", err)
	}
}

func TestRedis_BreakerStateWithoutClient(t *testing.T) {
	var r *Redis
	if r.BreakerState() != BreakerStateClosed {
		t.Fatalf("expected closed state for nil cache")
	}
}

func TestRateLimiter_CallsGoThroughBreaker(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := NewRedisFromClient(client, time.Minute, &BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	})
	limiter := NewRateLimiter(r, &config.RateLimitConfig{Enabled: true, Requests: 3, WindowSeconds: 60})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limiter.Check(ctx, "p-1")
		if err != nil || !res.Allowed {
			t.Fatalf("check %d should fail open, got allowed=%v err=%v", i, res.Allowed, err)
		}
	}
	if r.BreakerState() != BreakerStateOpen {
		t.Fatalf("expected open breaker, got %s", r.BreakerState())
	}
	if err := limiter.Reset(ctx, "p-1"); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen from Reset, got %v", err)
	}
}

// TestRateLimiter_SlidingWindow needs a live Redis at TEST_REDIS_URL
func TestRateLimiter_SlidingWindow(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("invalid TEST_REDIS_URL: %v", err)
	}
	client := redis.NewClient(opts)
	defer client.Close()
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	r := NewRedisFromClient(client, time.Minute, nil)
	limiter := NewRateLimiter(r, &config.RateLimitConfig{Enabled: true, Requests: 2, WindowSeconds: 60})
	subject := fmt.Sprintf("test-%d", time.Now().UnixNano())
	defer limiter.Reset(ctx, subject)

	for i := 0; i < 2; i++ {
		res, err := limiter.Check(ctx, subject)
		if err != nil || !res.Allowed {
			t.Fatalf("request %d should be allowed, got allowed=%v err=%v", i, res.Allowed, err)
		}
	}

	ttl, err := client.TTL(ctx, "ratelimit:sliding:"+subject).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= 0 || ttl > 2*time.Minute {
		t.Errorf("expected window key to expire within two windows, got %s", ttl)
	}

	res, err := limiter.Check(ctx, subject)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Allowed || res.Remaining != 0 {
		t.Fatalf("third request should be limited, got %+v", res)
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Errorf("expected RetryAfter within the window, got %s", res.RetryAfter)
	}

	if err := limiter.Reset(ctx, subject); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if res, err := limiter.Check(ctx, subject); err != nil || !res.Allowed {
		t.Fatalf("request after Reset should be allowed, got %+v err=%v", res, err)
	}
}
