// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis provides a managed client for the key-value store backend.

When STORE_BACKEND is "redis" the tag forest, the note registry and the
note-tag junction all live in Redis under the key taxonomy declared in the
constants package.

Core Responsibilities:

  - Connectivity: Parses the URL, tunes the pool and pings at startup.
  - Optimistic Units: [Optimistic] runs WATCH/MULTI/EXEC units and retries them
    when a watched key changes underneath.
*/
package redis

import (
	stdctx "context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/tagtree/internal/platform/metrics"
)

// Opiniated default timeouts for Redis operations.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

// Reader is the read subset shared by [*redis.Client] and [*redis.Tx], so that
// adapters can run the same lookups inside and outside a WATCH unit.
type Reader interface {
	Exists(ctx stdctx.Context, keys ...string) *redis.IntCmd
	HGetAll(ctx stdctx.Context, key string) *redis.MapStringStringCmd
	HExists(ctx stdctx.Context, key, field string) *redis.BoolCmd
	HKeys(ctx stdctx.Context, key string) *redis.StringSliceCmd
	SMembers(ctx stdctx.Context, key string) *redis.StringSliceCmd
	SUnion(ctx stdctx.Context, keys ...string) *redis.StringSliceCmd
	SInter(ctx stdctx.Context, keys ...string) *redis.StringSliceCmd
	ZRange(ctx stdctx.Context, key string, start, stop int64) *redis.StringSliceCmd
	Pipelined(ctx stdctx.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

var (
	_ Reader = (*redis.Client)(nil)
	_ Reader = (*redis.Tx)(nil)
)

// ErrContention is returned by [Optimistic] when every attempt lost the race.
var ErrContention = errors.New("redis: optimistic transaction retries exhausted")

// NewClient parses a Redis URL and returns a ready-to-use client.
//
// # Parameters
//   - context: Context for the initial ping.
//   - redisURL: Redis connection URL.
//   - logger: Structured logger for connection events.
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	// Pool configuration Tuning
	options.PoolSize = 10
	options.MinIdleConns = 2
	options.MaxIdleConns = 5

	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	// Validate connectivity immediately at startup.
	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis client connected",
		slog.String("addr", options.Addr),
		slog.Int("pool_size", options.PoolSize),
	)

	return client, nil
}

// Ping verifies that the Redis client is healthy.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}

	return nil
}

/*
Optimistic runs fn as a WATCH unit over keys and retries it while EXEC aborts.

fn reads through the [*redis.Tx] and must queue its writes with tx.TxPipelined
so they commit atomically. fn may WATCH additional keys before reading them.

Parameters:
  - context: Request context
  - client: Redis client
  - unit: Label for the retry counter
  - attempts: Upper bound on tries, at least one is made
  - fn: The unit of work
  - keys: Keys watched from the start of every attempt

Returns:
  - error: fn's error, or an error wrapping [ErrContention] and [redis.TxFailedErr]
*/
func Optimistic(context stdctx.Context, client *redis.Client, unit string, attempts int, fn func(tx *redis.Tx) error, keys ...string) error {
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		err := client.Watch(context, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}

		if context.Err() != nil {
			return context.Err()
		}
		metrics.OptimisticRetries.WithLabelValues(unit).Inc()
	}

	return fmt.Errorf("%w after %d attempts: %w", ErrContention, attempts, redis.TxFailedErr)
}
