package limiter

import (
	"context"
	_ "embed"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:embed fixed_window.lua
var fixedWindowScript string

// RedisLimiter is a distributed fixed-window attempt limiter.
//
// The whole read-check-increment cycle runs as one Lua script inside Redis,
// so the budget holds across replicas and concurrent attempts against the
// same key serialize there. Window expiry is the key's TTL.
type RedisLimiter struct {
	client      *redis.Client
	script      *redis.Script
	maxAttempts int
	windowDur   time.Duration
}

// NewRedisLimiter constructs a RedisLimiter over an established client.
func NewRedisLimiter(client *redis.Client, maxAttempts int, windowDur time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		script:      redis.NewScript(fixedWindowScript),
		maxAttempts: maxAttempts,
		windowDur:   windowDur,
	}
}

// TryConsume charges one attempt for the (ipHash, code) pair.
func (l *RedisLimiter) TryConsume(ctx context.Context, ipHash, code string) (Decision, error) {
	key := attemptKey(ipHash, code)
	windowSeconds := int(l.windowDur / time.Second)

	result, err := l.script.Run(ctx, l.client, []string{key}, l.maxAttempts, windowSeconds).Result()
	if err != nil {
		return Decision{}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return Decision{}, errors.New("limiter: unexpected script response")
	}

	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	retryAfter, _ := values[2].(int64)

	return Decision{
		Allowed:    allowed == 1,
		Remaining:  int(remaining),
		RetryAfter: time.Duration(retryAfter) * time.Second,
	}, nil
}
