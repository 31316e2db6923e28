// Package ratelimit implements a fixed window request limiter backed by Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dtroode/alumni-connect-server/internal/config"
)

// The first hit of a window sets its expiry so every window ends on its own.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// Decision is the verdict for one request.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Redis is a Limiter sharing its counters across server replicas.
type Redis struct {
	client redis.UniversalClient
	prefix string
	limit  int
	window time.Duration
}

var _ Limiter = (*Redis)(nil)

// NewRedis creates a limiter allowing limit requests per window and key.
func NewRedis(client redis.UniversalClient, prefix string, limit int, window time.Duration) *Redis {
	if prefix == "" {
		prefix = "rl"
	}
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Redis{
		client: client,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

// Connect parses cfg.URL, dials Redis and checks that it answers.
func Connect(ctx context.Context, cfg config.Redis) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	return client, nil
}

// Allow counts a hit for key in the current window.
func (l *Redis) Allow(ctx context.Context, key string) (Decision, error) {
	if l.client == nil {
		return Decision{}, fmt.Errorf("redis client is nil")
	}
	if key == "" {
		key = "unknown"
	}

	raw, err := fixedWindowScript.Run(ctx, l.client,
		[]string{l.prefix + ":" + key},
		l.window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(raw) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit script response of %d values", len(raw))
	}

	count, ttl := raw[0], raw[1]
	remaining := int64(l.limit) - count
	if remaining < 0 {
		remaining = 0
	}

	d := Decision{
		Allowed:   count <= int64(l.limit),
		Remaining: int(remaining),
	}
	if !d.Allowed {
		d.RetryAfter = time.Duration(max(ttl, 1)) * time.Millisecond
	}

	return d, nil
}
