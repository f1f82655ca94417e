// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript runs prune, count and append in one step.
// KEYS[1] window key; ARGV: now ms, window ms, max, member.
// Returns {allowed, count, oldest ms}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count >= max then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	return {0, count, tonumber(oldest[2])}
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return {1, count + 1, 0}
`)

// RedisStore keeps windows in Redis sorted sets so every instance sees
// the same counts.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an existing client. Keys are stored as prefix+key.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreFromURL connects using a redis:// URL and pings the server.
func NewRedisStoreFromURL(ctx context.Context, rawURL, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return NewRedisStore(client, prefix), nil
}

// Hit implements Store.
func (s *RedisStore) Hit(ctx context.Context, key string, now time.Time, cfg Config) (Result, error) {
	nowMs := now.UnixMilli()
	windowMs := cfg.Window.Milliseconds()

	vals, err := slidingWindowScript.Run(ctx, s.client,
		[]string{s.prefix + "rl:" + key},
		nowMs, windowMs, cfg.MaxRequests, fmt.Sprintf("%d-%s", nowMs, uuid.NewString()),
	).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("running sliding window script: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("unexpected sliding window reply: %v", vals)
	}

	if vals[0] == 0 {
		retry := time.Duration(vals[2]+windowMs-nowMs) * time.Millisecond
		if retry < 0 {
			retry = 0
		}
		return Result{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}

	return Result{Allowed: true, Remaining: cfg.MaxRequests - int(vals[1])}, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
