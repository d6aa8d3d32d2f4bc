package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Key patterns, all with a fixed window TTL:
// - ratelimit:{user_id}:messages  chat sends per user
// - ratelimit:{ip}:contact        contact form submissions per client IP
// - ratelimit:{ip}:auth           login and register attempts per client IP

type RateLimitConfig struct {
	MessageLimit  int
	MessageWindow time.Duration
	ContactLimit  int
	ContactWindow time.Duration
	AuthLimit     int
	AuthWindow    time.Duration
}

func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MessageLimit:  30,
		MessageWindow: time.Minute,
		ContactLimit:  5,
		ContactWindow: time.Hour,
		AuthLimit:     10,
		AuthWindow:    time.Minute,
	}
}

type RateLimiter struct {
	client *goredis.Client
	config RateLimitConfig
}

type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Limit     int
}

func NewRateLimiter(client *goredis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		client: client,
		config: config,
	}
}

func (r *RateLimiter) AllowMessage(ctx context.Context, userID string) (*RateLimitResult, error) {
	return r.checkLimit(ctx, MessageKey(userID), r.config.MessageLimit, r.config.MessageWindow)
}

func (r *RateLimiter) AllowContact(ctx context.Context, ip string) (*RateLimitResult, error) {
	return r.checkLimit(ctx, ContactKey(ip), r.config.ContactLimit, r.config.ContactWindow)
}

func (r *RateLimiter) AllowAuth(ctx context.Context, ip string) (*RateLimitResult, error) {
	return r.checkLimit(ctx, AuthKey(ip), r.config.AuthLimit, r.config.AuthWindow)
}

func MessageKey(userID string) string { return fmt.Sprintf("ratelimit:%s:messages", userID) }
func ContactKey(ip string) string     { return fmt.Sprintf("ratelimit:%s:contact", ip) }
func AuthKey(ip string) string        { return fmt.Sprintf("ratelimit:%s:auth", ip) }

// fixedWindow increments the counter while under limit and reports
// {allowed, remaining, ttl}.
var fixedWindow = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')

	local ttl = redis.call('TTL', key)
	if ttl < 0 then
		ttl = window
	end

	if current < limit then
		redis.call('INCR', key)
		if ttl == window then
			redis.call('EXPIRE', key, window)
		end
		return {1, limit - current - 1, ttl}
	end
	return {0, 0, ttl}
`)

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, window time.Duration) (*RateLimitResult, error) {
	if limit <= 0 {
		return &RateLimitResult{Allowed: true, Remaining: 0, Limit: 0}, nil
	}

	result, err := fixedWindow.Run(ctx, r.client, []string{key}, limit, int(window.Seconds())).Result()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}

	return parseResult(result, limit)
}

func parseResult(result interface{}, limit int) (*RateLimitResult, error) {
	values, ok := result.([]interface{})
	if !ok || len(values) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}
	nums := make([]int64, 3)
	for i := range nums {
		n, ok := values[i].(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected rate limit result format")
		}
		nums[i] = n
	}

	return &RateLimitResult{
		Allowed:   nums[0] == 1,
		Remaining: int(nums[1]),
		ResetIn:   time.Duration(nums[2]) * time.Second,
		Limit:     limit,
	}, nil
}

// Reset clears the counter behind key.
func (r *RateLimiter) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
