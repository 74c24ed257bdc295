// Package ai provides decorators around the external AI collaborators.
package ai

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-oral-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-oral-evaluator/internal/domain"
)

// ExpectedAnswerCache memoizes generated expected answers in Redis. The same
// question asked across sessions of one topic is common, and generation is
// the only slow call in an evaluation; caching it is safe because the ideal
// answer depends only on (topic, question).
type ExpectedAnswerCache struct {
	next domain.AnswerGenerator
	rdb  *redis.Client
	ttl  time.Duration
}

// NewExpectedAnswerCache wraps next with a Redis cache. A nil client
// disables caching and passes straight through.
func NewExpectedAnswerCache(next domain.AnswerGenerator, rdb *redis.Client, ttl time.Duration) *ExpectedAnswerCache {
	return &ExpectedAnswerCache{next: next, rdb: rdb, ttl: ttl}
}

// ExpectedAnswer returns the cached answer when present, otherwise delegates
// and stores the result. Cache failures are logged and bypassed; they never
// fail the generation path.
func (c *ExpectedAnswerCache) ExpectedAnswer(ctx domain.Context, question, topic string) (string, error) {
	if c.rdb == nil {
		return c.next.ExpectedAnswer(ctx, question, topic)
	}
	key := cacheKey(question, topic)
	val, err := c.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		observability.ExpectedAnswerCacheTotal.WithLabelValues("hit").Inc()
		return val, nil
	case errors.Is(err, redis.Nil):
		observability.ExpectedAnswerCacheTotal.WithLabelValues("miss").Inc()
	default:
		observability.ExpectedAnswerCacheTotal.WithLabelValues("error").Inc()
		slog.Warn("expected answer cache get failed", slog.Any("error", err))
	}

	out, err := c.next.ExpectedAnswer(ctx, question, topic)
	if err != nil {
		return "", err
	}
	if out != "" {
		if err := c.rdb.Set(ctx, key, out, c.ttl).Err(); err != nil {
			slog.Warn("expected answer cache set failed", slog.Any("error", err))
		}
	}
	return out, nil
}

func cacheKey(question, topic string) string {
	h := sha256.Sum256([]byte(topic + "\x00" + question))
	return "expected:" + hex.EncodeToString(h[:])
}
