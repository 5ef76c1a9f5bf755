package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript выполняет вытеснение, подсчет и добавление отметки
// одной атомарной операцией. Отметки хранятся в ZSET со счетом в миллисекундах.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

if count >= limit then
	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local reset = now + window
	if oldest[2] then
		reset = tonumber(oldest[2]) + window
	end
	return {0, count, reset}
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {1, count, tonumber(oldest[2]) + window}
`)

// RedisStore хранит окна в Redis и позволяет нескольким экземплярам сервиса
// делить счетчики. Ключи истекают сами через PEXPIRE, поэтому Sweep ничего не делает.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore создает хранилище поверх клиента Redis.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Check реализует Store.
func (s *RedisStore) Check(ctx context.Context, key string, cfg Config, now time.Time) (Decision, error) {
	const op = "ratelimit.RedisStore.Check"

	nowMs := now.UnixMilli()
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	res, err := slidingWindowScript.Run(ctx, s.client,
		[]string{s.prefix + key},
		nowMs, cfg.Window.Milliseconds(), cfg.MaxRequests, member,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%s: unexpected script reply of length %d", op, len(res))
	}

	allowed := res[0] == 1
	count := int(res[1])
	d := Decision{
		Allowed:   allowed,
		Limit:     cfg.MaxRequests,
		ResetTime: time.UnixMilli(res[2]).In(now.Location()),
	}
	if allowed {
		d.Remaining = cfg.MaxRequests - count - 1
	}
	return retryAfter(d, now), nil
}

// Sweep реализует Store.
func (s *RedisStore) Sweep(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}
