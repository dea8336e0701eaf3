package service

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChatRateLimiter limita intercambios de chat por cliente. Cuando deniega,
// retryAfter indica los segundos hasta que la ventana expira.
type ChatRateLimiter interface {
	Allow(key string) (allowed bool, retryAfter int)
}

const redisChatAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`

type redisChatRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewRedisChatRateLimiter(client *redis.Client, window time.Duration, max int) ChatRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisChatRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "chat:rl:",
	}
}

func (l *redisChatRateLimiter) Allow(key string) (bool, int) {
	if l == nil || l.client == nil {
		return true, 0
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false, int(l.window.Seconds())
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	redisKey := l.prefix + normalizedKey
	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	vals, err := l.client.Eval(ctx, redisChatAllowScript, []string{redisKey}, seconds).Int64Slice()
	if err != nil || len(vals) != 2 {
		// Fail-open: un redis caído no debe tumbar el chat.
		return true, 0
	}
	count, ttl := vals[0], int(vals[1])
	if ttl < 0 {
		ttl = seconds
	}
	if count > int64(l.max) {
		return false, ttl
	}
	return true, 0
}
