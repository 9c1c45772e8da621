package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	KeyPrefix  = "discovery:seq:"
	DefaultTTL = 10 * time.Minute
)

// registerScript stores ARGV[1] when it is at least the stored value and
// refreshes the TTL. Returns 1 when ARGV[1] is the latest.
var registerScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local seq = tonumber(ARGV[1])
if seq < cur then
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// RedisSequencer shares sequence state across worker replicas.
type RedisSequencer struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisSequencer(client redis.Cmdable, ttl time.Duration) *RedisSequencer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisSequencer{client: client, ttl: ttl}
}

func Key(sessionID string) string {
	return KeyPrefix + sessionID
}

func (s *RedisSequencer) Register(ctx context.Context, sessionID string, seq int64) (bool, error) {
	if sessionID == "" {
		return true, nil
	}
	res, err := registerScript.Run(ctx, s.client, []string{Key(sessionID)}, seq, s.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("register sequence for session %s: %w", sessionID, err)
	}
	return res == 1, nil
}

// IsLatest treats an expired session as having no newer request.
func (s *RedisSequencer) IsLatest(ctx context.Context, sessionID string, seq int64) (bool, error) {
	if sessionID == "" {
		return true, nil
	}
	val, err := s.client.Get(ctx, Key(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("read sequence for session %s: %w", sessionID, err)
	}
	cur, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt sequence for session %s: %w", sessionID, err)
	}
	return seq >= cur, nil
}
