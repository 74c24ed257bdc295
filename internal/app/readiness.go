package app

import (
	"context"
	"fmt"
)

// Checker is the minimal interface for a dependency probe.
type Checker interface{ Check(ctx context.Context) error }

// RedisPingResult is the minimal return type of a Redis client's Ping.
type RedisPingResult interface{ Err() error }

// RedisClient is the minimal interface for a Redis client needed for readiness.
type RedisClient interface {
	Ping(ctx context.Context) RedisPingResult
}

// BuildReadinessChecks returns probes for the knowledge base, Redis, and the
// AI provider. A nil Redis client reports as not configured, which is fine:
// the cache is optional.
func BuildReadinessChecks(kb Checker, rdb RedisClient, ai Checker) (
	func(ctx context.Context) error,
	func(ctx context.Context) error,
	func(ctx context.Context) error,
) {
	kbCheck := func(ctx context.Context) error {
		if kb == nil {
			return fmt.Errorf("knowledge base not configured")
		}
		return kb.Check(ctx)
	}
	redisCheck := func(ctx context.Context) error {
		if rdb == nil {
			return nil // optional dependency
		}
		return rdb.Ping(ctx).Err()
	}
	aiCheck := func(ctx context.Context) error {
		if ai == nil {
			return fmt.Errorf("ai client not configured")
		}
		return ai.Check(ctx)
	}
	return kbCheck, redisCheck, aiCheck
}
